package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/icp/internal/config"
	"github.com/okian/icp/internal/domain/model"
	"github.com/okian/icp/internal/domain/profile"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 65536)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ICP_ADDR", ":8080")
			_ = os.Setenv("ICP_LOG_LEVEL", "debug")
			_ = os.Setenv("ICP_LOG_FORMAT", "json")
			_ = os.Setenv("ICP_MAX_BODY_BYTES", "1024")
			_ = os.Setenv("ICP_METRICS_ENABLED", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 1024)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When overriding a single baseline value from the environment", func() {
			_ = os.Setenv("ICP_PROFILE__STDS__REVISIT_INTENSITY", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then only that value changes", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Profile.Stds[model.RevisitIntensity], convey.ShouldEqual, 0)
				convey.So(cfg.Profile.Stds[model.EngagementDepth], convey.ShouldEqual, 45539.847327)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_level: warn
max_body_bytes: 4096
profile:
  means:
    engagement_depth: 1000
    exploration_breadth: 2
    decision_momentum: 0
    revisit_intensity: 1
  stds:
    engagement_depth: 500
    exploration_breadth: 1
    decision_momentum: 2
    revisit_intensity: 3
  segments:
    - name: Skimmers
      weights:
        norm_depth: -1
    - name: Readers
      weights:
        norm_depth: 1
        norm_breadth: 0.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ICP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 4096)
				convey.So(cfg.Profile.Segments, convey.ShouldHaveLength, 2)

				p, err := cfg.Profile.Build()
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Segments(), convey.ShouldResemble, []string{"Skimmers", "Readers"})
				w, err := p.WeightsOf("Readers")
				convey.So(err, convey.ShouldBeNil)
				convey.So(w[model.NormBreadth], convey.ShouldEqual, 0.5)
				mean, err := p.MeanOf(model.EngagementDepth)
				convey.So(err, convey.ShouldBeNil)
				convey.So(mean, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
log_level: warn
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ICP_CONFIG", tmpFile)
			_ = os.Setenv("ICP_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ICP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ICP_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("ICP_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown log format", func() {
			_ = os.Setenv("ICP_LOG_FORMAT", "xml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative standard deviation", func() {
			_ = os.Setenv("ICP_PROFILE__STDS__ENGAGEMENT_DEPTH", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then startup fails on the profile", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, profile.ErrInvalidProfile), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown metric in the file", func() {
			yamlContent := `
profile:
  means:
    dwell_time: 12
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ICP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the mismatched tables are rejected", func() {
				convey.So(errors.Is(err, profile.ErrInvalidProfile), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "dwell_time")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("ICP_MAX_BODY_BYTES", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"ICP_CONFIG",
		"ICP_ADDR",
		"ICP_LOG_LEVEL",
		"ICP_LOG_FORMAT",
		"ICP_MAX_BODY_BYTES",
		"ICP_METRICS_ENABLED",
		"ICP_PROFILE__STDS__REVISIT_INTENSITY",
		"ICP_PROFILE__STDS__ENGAGEMENT_DEPTH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "icp-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
