package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func checkErr(err error) {
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
}

func New() *Config {
	config := viper.New()

	// Default config
	b, _ := json.Marshal(Config{
		ConfigFile: "config.yaml",
		Level:      "info",
		Twitch: TwitchConfig{
			SecretLength: 32,
		},
		Quotes: QuotesConfig{
			MinID: 1,
		},
		Chat: ChatConfig{
			IrcURL: "wss://irc-ws.chat.twitch.tv:443",
		},
	})
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)
	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(defaultConfig))
	checkErr(config.MergeConfigMap(tmp.AllSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Parse()
	checkErr(config.BindPFlags(pflag.CommandLine))

	// File
	config.SetConfigFile(config.GetString("config"))
	config.AddConfigPath(".")
	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	} else {
		logrus.Warning(err)
		logrus.Info("Using default config")
	}

	BindEnvs(config, Config{})

	// Environment
	config.AutomaticEnv()
	config.SetEnvPrefix("LOTR")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)

	c := &Config{}
	checkErr(config.Unmarshal(&c))

	initLogging(c.Level)

	return c
}

func BindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch v.Kind() {
		case reflect.Struct:
			BindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

func initLogging(level string) {
	if l, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(l)
	}
	logrus.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"component", "category"},
	})
}

type TwitchConfig struct {
	ClientID     string `mapstructure:"client_id" json:"client_id"`
	ClientSecret string `mapstructure:"client_secret" json:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri" json:"redirect_uri"`
	// SelectURI is where the callback sends broadcasters to pick rewards.
	SelectURI string `mapstructure:"select_uri" json:"select_uri"`
	// WebhookURI is registered as the EventSub transport callback.
	WebhookURI   string `mapstructure:"webhook_uri" json:"webhook_uri"`
	SecretLength int    `mapstructure:"secret_length" json:"secret_length"`
}

type QuotesConfig struct {
	MinID int `mapstructure:"min_id" json:"min_id"`
	MaxID int `mapstructure:"max_id" json:"max_id"`
}

type ChatConfig struct {
	IrcURL string `mapstructure:"irc_url" json:"irc_url"`
}

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`

	Redis struct {
		URI string `mapstructure:"uri" json:"uri"`
	} `mapstructure:"redis" json:"redis"`

	Mongo struct {
		URI      string `mapstructure:"uri" json:"uri"`
		Database string `mapstructure:"database" json:"database"`
	} `mapstructure:"mongo" json:"mongo"`

	Twitch TwitchConfig `mapstructure:"twitch" json:"twitch"`

	Quotes QuotesConfig `mapstructure:"quotes" json:"quotes"`

	Chat ChatConfig `mapstructure:"chat" json:"chat"`

	Frontend struct {
		CookieSecure bool   `mapstructure:"cookie_secure" json:"cookie_secure"`
		CookieDomain string `mapstructure:"cookie_domain" json:"cookie_domain"`
	} `mapstructure:"frontend" json:"frontend"`

	API struct {
		Bind string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"api" json:"api"`
}
