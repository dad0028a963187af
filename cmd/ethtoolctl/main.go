// ethtoolctl 在本机或远端主机上执行 ethtool，并以 YAML/JSON 输出结构化结果
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/service"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
)

// 通过 -ldflags "-X main.version=..." 注入
var version = "dev"

var (
	configPath string
	output     string
	target     service.Target

	cfg  *config.Config
	pool *ssh.Pool
	// runnerFactory 非空时替代真实执行器
	runnerFactory func(service.Target) (ethtool.Runner, error)
)

var rootCmd = &cobra.Command{
	Use:           "ethtoolctl",
	Short:         "Query and configure NICs through ethtool",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		// 日志只走 stderr，stdout 留给结果
		cfg.Log.Output = "console"
		if err := logger.Init(cfg.Log); err != nil {
			return err
		}
		logger.SetOutput(cmd.ErrOrStderr())
		if output != "yaml" && output != "json" {
			return fmt.Errorf("unsupported output %q (yaml|json)", output)
		}
		if target.DeviceIP == "" {
			target.Local = true
		}
		cfg.Ethtool.AllowLocal = true
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if pool != nil {
			_ = pool.Close()
		}
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "config file (default: search ./configs)")
	f.StringVarP(&output, "output", "o", "yaml", "output format: yaml|json")
	f.StringVarP(&target.DeviceIP, "host", "H", "", "remote host; empty runs locally")
	f.IntVarP(&target.Port, "port", "p", 22, "ssh port")
	f.StringVarP(&target.UserName, "user", "u", "root", "ssh user")
	f.StringVar(&target.Password, "password", os.Getenv("ETHTOOLCTL_PASSWORD"), "ssh password (env ETHTOOLCTL_PASSWORD)")
	f.StringVar(&target.KeyFile, "key", "", "ssh private key file")
	f.StringVarP(&target.Namespace, "namespace", "n", "", "network namespace")
	f.StringVarP(&target.Driver, "driver", "d", "", "driver profile, or auto")
}

// newService 按全局参数创建服务；远端执行时懒创建连接池
func newService() *service.EthtoolService {
	if !target.Local && pool == nil {
		pool = ssh.NewPool(&ssh.PoolConfig{
			MaxIdle:     1,
			MaxActive:   1,
			IdleTimeout: cfg.SSH.Pool.IdleTimeout,
			SSHConfig: &ssh.Config{
				Timeout:     cfg.SSH.Timeout,
				KeepAlive:   cfg.SSH.KeepAlive,
				MaxSessions: cfg.SSH.MaxSessions,
			},
		}, nil)
	}
	svc := service.NewEthtoolService(cfg, pool, nil)
	if runnerFactory != nil {
		svc.WithRunnerFactory(runnerFactory)
	}
	return svc
}

// printResult 按 --output 输出
func printResult(w io.Writer, v interface{}) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
