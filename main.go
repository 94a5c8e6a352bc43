package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/troydota/lotr-quotes/src/configure"
	"github.com/troydota/lotr-quotes/src/global"
	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/redis"
	"github.com/troydota/lotr-quotes/src/server"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Infoln("Application Starting...")

	config := configure.New()

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	{
		ctx, done := context.WithTimeout(gCtx, time.Second*15)

		mongoInst, err := mongo.Setup(ctx, config)
		if err != nil {
			logrus.Fatal("failed to connect to mongo: ", err)
		}
		gCtx.Inst().Mongo = mongoInst

		redisInst, err := redis.Setup(ctx, config)
		if err != nil {
			logrus.Fatal("failed to connect to redis: ", err)
		}
		gCtx.Inst().Redis = redisInst

		done()
	}

	serverDone := server.New(gCtx)

	logrus.Infoln("Application Started.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-c
	logrus.Infof("sig=%v, gracefully shutting down...", sig)
	start := time.Now().UnixNano()

	cancel()

	select {
	case <-serverDone:
	case <-time.After(time.Second * 10):
		logrus.Error("shutdown timed out")
	}

	logrus.Infof("Shutdown took, %.2fms", float64(time.Now().UnixNano()-start)/10e5)
	os.Exit(0)
}
