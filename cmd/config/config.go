package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/opstrack/opstrack/internal/aio"
	"github.com/opstrack/opstrack/internal/app/subsystems/api/http"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist/postgres"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist/sqlite"
	"github.com/opstrack/opstrack/internal/kernel/system"
	"github.com/opstrack/opstrack/internal/notify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Config struct {
	System        system.Config `flag:"system"`
	AIO           aio.Config    `flag:"aio"`
	Http          http.Config   `flag:"http"`
	Notifications notify.Config `flag:"notifications"`
	Persist       Persist       `flag:"persist"`
	MetricsAddr   string        `flag:"metrics-addr" desc:"prometheus metrics server address" default:":9090"`
	LogLevel      string        `flag:"log-level" desc:"can be one of: debug, info, warn, error, off" default:"info"`
	LogFormat     string        `flag:"log-format" desc:"can be one of: text, json" default:"text"`
}

type Persist struct {
	Kind     string          `flag:"kind" desc:"persistence backend, can be one of: sqlite, postgres, none" default:"sqlite"`
	Writer   persist.Config  `flag:"-"`
	Sqlite   sqlite.Config   `flag:"sqlite"`
	Postgres postgres.Config `flag:"postgres"`
}

// New returns the configured Persister, nil when persistence is
// disabled.
func (p *Persist) New() (persist.Persister, error) {
	switch strings.ToLower(p.Kind) {
	case "sqlite":
		s, err := sqlite.New(&p.Sqlite)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.New(&p.Postgres)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported persistence backend %q", p.Kind)
	}
}

// Bind defines a flag for every field of the config and binds the flag
// to the viper key of the field.
func (c *Config) Bind(cmd *cobra.Command, vip *viper.Viper) error {
	return bind(cmd, vip, c, "", "")
}

// Decode unmarshals the viper settings into the config.
func (c *Config) Decode(vip *viper.Viper) error {
	return vip.Unmarshal(c, viper.DecodeHook(Hooks()))
}

func Hooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Helper functions

func bind(cmd *cobra.Command, vip *viper.Viper, cfg any, fPrefix string, kPrefix string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		flag := field.Tag.Get("flag")
		desc := field.Tag.Get("desc")
		value := field.Tag.Get("default")

		var n string
		if fPrefix == "" {
			n = flag
		} else if flag == "-" {
			n = fPrefix
		} else {
			n = fmt.Sprintf("%s-%s", fPrefix, flag)
		}

		var k string
		if kPrefix == "" {
			k = field.Name
		} else {
			k = fmt.Sprintf("%s.%s", kPrefix, field.Name)
		}

		switch field.Type.Kind() {
		case reflect.String:
			cmd.Flags().String(n, value, desc)
		case reflect.Bool:
			cmd.Flags().Bool(n, value == "true", desc)
		case reflect.Int:
			v, _ := strconv.Atoi(value)
			cmd.Flags().Int(n, v, desc)
		case reflect.Int64:
			if field.Type == reflect.TypeOf(time.Duration(0)) {
				v, _ := time.ParseDuration(value)
				cmd.Flags().Duration(n, v, desc)
			} else {
				v, _ := strconv.ParseInt(value, 10, 64)
				cmd.Flags().Int64(n, v, desc)
			}
		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.String {
				panic(fmt.Sprintf("unsupported slice type: %s", field.Type))
			}

			var v []string
			if value != "" {
				v = strings.Split(value, ",")
			}
			cmd.Flags().StringSlice(n, v, desc)
		case reflect.Map:
			if field.Type != reflect.TypeOf(map[string]string{}) {
				panic(fmt.Sprintf("unsupported map type: %s", field.Type))
			}
			if value == "" {
				value = "{}"
			}

			var v map[string]string
			if err := json.Unmarshal([]byte(value), &v); err != nil {
				return err
			}
			cmd.Flags().StringToString(n, v, desc)
		case reflect.Struct:
			if err := bind(cmd, vip, v.Field(i).Addr().Interface(), n, k); err != nil {
				return err
			}
			continue
		default:
			panic(fmt.Sprintf("unsupported type %s", field.Type.Kind()))
		}

		if err := vip.BindPFlag(k, cmd.Flags().Lookup(n)); err != nil {
			return err
		}
	}

	return nil
}
