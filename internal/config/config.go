package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		EnabledHandlers  []string `env:"HANDLERS,default=admin"`
		LogLevel         int      `env:"LOG_LEVEL,default=2"`
		DotPath          string `env:"DOT_PATH,default=~/.zeroguard"`
		MetricsAddr      string `env:"METRICS_ADDR,default=:2112"`

		// SupportChat is the public channel mentioned in access-denied replies.
		SupportChat string `env:"SUPPORT_CHAT,default=ZeroTwoSupport"`

		// DeleteRestrictedCommands silently removes bare restricted commands
		// instead of replying to them.
		DeleteRestrictedCommands bool `env:"DEL_CMDS,default=false"`

		RolesPath string `env:"ROLES_PATH"`
		Roles     Roles
	}

	// Roles holds the static privileged user ID lists, most to least
	// privileged. The env lists are merged with the optional roles file.
	Roles struct {
		DevUsers     []int64 `env:"DEV_USERS" yaml:"dev_users"`
		SudoUsers    []int64 `env:"SUDO_USERS" yaml:"sudo_users"`
		SupportUsers []int64 `env:"SUPPORT_USERS" yaml:"support_users"`
		TigerUsers   []int64 `env:"TIGER_USERS" yaml:"tiger_users"`
		WolfUsers    []int64 `env:"WOLF_USERS" yaml:"wolf_users"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("ZG_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		if cfg.RolesPath != "" {
			fileRoles, err := LoadRolesFile(cfg.RolesPath)
			if err != nil {
				globalErr = fmt.Errorf("load roles file: %w", err)
				return
			}
			cfg.Roles = MergeRoles(cfg.Roles, fileRoles)
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

// LoadRolesFile reads per-tier user ID lists from a YAML file.
func LoadRolesFile(path string) (Roles, error) {
	roles := Roles{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return roles, fmt.Errorf("read roles file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &roles); err != nil {
		return roles, fmt.Errorf("unmarshal roles file: %w", err)
	}
	return roles, nil
}

func MergeRoles(base, extra Roles) Roles {
	return Roles{
		DevUsers:     mergeIDs(base.DevUsers, extra.DevUsers),
		SudoUsers:    mergeIDs(base.SudoUsers, extra.SudoUsers),
		SupportUsers: mergeIDs(base.SupportUsers, extra.SupportUsers),
		TigerUsers:   mergeIDs(base.TigerUsers, extra.TigerUsers),
		WolfUsers:    mergeIDs(base.WolfUsers, extra.WolfUsers),
	}
}

func mergeIDs(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	merged := make([]int64, 0)
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}
