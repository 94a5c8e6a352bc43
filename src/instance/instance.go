package instance

type InstanceList struct {
	Mongo Mongo
	Redis Redis
}
