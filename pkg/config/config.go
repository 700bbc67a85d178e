// Package config holds the directory layout clamp-config prints flags for.
//
// The built-in values mirror what the CMake build used to bake into
// clamp-config.hxx. They can be replaced at link time:
//
//	go build -ldflags "-X github.com/Manu343726/clamp-config/pkg/config.installPrefix=/usr/local"
//
// and at runtime through a YAML config file or CLAMP_* environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/Manu343726/clamp-config/pkg/utils"
	"github.com/spf13/viper"
)

var ErrConfig = errors.New("configuration error")

// Prefix of the environment variables overriding config keys, e.g. CLAMP_INSTALL_LIB
const EnvPrefix = "CLAMP"

// Base name of the config file searched in the user home directory
const ConfigName = ".clamp-config"

// Link-time overridable defaults
var (
	installPrefix = "/opt/clamp"

	buildClampInclude  = "/usr/src/clamp/include"
	buildLibcxxInclude = "/usr/src/clamp/libc++/libcxx/include"
	buildAmpclLib      = "/usr/src/clamp/build/lib"
	buildLibcxxLib     = "/usr/src/clamp/build/libc++/libcxx/lib"
	buildLibcxxrtLib   = "/usr/src/clamp/build/libc++/libcxxrt/lib"

	installInclude       = "/opt/clamp/include"
	installLibcxxInclude = "/opt/clamp/include/c++/v1"
	installLib           = "/opt/clamp/lib"
)

// Directories of a not yet installed clamp source/build tree
type BuildTree struct {
	ClampInclude  string `mapstructure:"clamp_include"`
	LibcxxInclude string `mapstructure:"libcxx_include"`
	AmpclLib      string `mapstructure:"ampcl_lib"`
	LibcxxLib     string `mapstructure:"libcxx_lib"`
	LibcxxrtLib   string `mapstructure:"libcxxrt_lib"`
}

// Directories of an installed clamp toolchain
type InstallTree struct {
	Include       string `mapstructure:"include"`
	LibcxxInclude string `mapstructure:"libcxx_include"`
	Lib           string `mapstructure:"lib"`
}

// Paths is the full set of directories flags are composed from
type Paths struct {
	InstallPrefix string      `mapstructure:"install_prefix"`
	Build         BuildTree   `mapstructure:"build"`
	Install       InstallTree `mapstructure:"install"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	Paths `mapstructure:",squash"`
	Log   Log `mapstructure:"log"`
}

// Returns the configuration built into the binary
func Defaults() Config {
	return Config{
		Paths: Paths{
			InstallPrefix: installPrefix,
			Build: BuildTree{
				ClampInclude:  buildClampInclude,
				LibcxxInclude: buildLibcxxInclude,
				AmpclLib:      buildAmpclLib,
				LibcxxLib:     buildLibcxxLib,
				LibcxxrtLib:   buildLibcxxrtLib,
			},
			Install: InstallTree{
				Include:       installInclude,
				LibcxxInclude: installLibcxxInclude,
				Lib:           installLib,
			},
		},
		Log: Log{
			Level: "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("install_prefix", d.InstallPrefix)

	v.SetDefault("build.clamp_include", d.Build.ClampInclude)
	v.SetDefault("build.libcxx_include", d.Build.LibcxxInclude)
	v.SetDefault("build.ampcl_lib", d.Build.AmpclLib)
	v.SetDefault("build.libcxx_lib", d.Build.LibcxxLib)
	v.SetDefault("build.libcxxrt_lib", d.Build.LibcxxrtLib)

	v.SetDefault("install.include", d.Install.Include)
	v.SetDefault("install.libcxx_include", d.Install.LibcxxInclude)
	v.SetDefault("install.lib", d.Install.Lib)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Init registers defaults and environment bindings on v and reads the config file.
//
// If cfgFile is not empty it is read directly, otherwise a ".clamp-config" file
// (any extension viper understands, yaml when there is none) is searched in
// searchPaths. Not finding a config file in the search paths is not an error.
// On error v stays usable with defaults and environment overrides.
func Init(v *viper.Viper, cfgFile string, searchPaths ...string) error {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if len(searchPaths) == 0 {
			return nil
		}

		for _, path := range searchPaths {
			v.AddConfigPath(path)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return utils.MakeError(ErrConfig, "reading %v: %v", configFileName(v, cfgFile), err)
	}

	return nil
}

// Decodes the current state of v into a Config
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return Defaults(), utils.MakeError(ErrConfig, "decoding settings: %v", err)
	}

	return cfg, nil
}

// Returns the path of the config file the user meant, even if it could not be read
func configFileName(v *viper.Viper, cfgFile string) string {
	if cfgFile != "" {
		return cfgFile
	}

	return v.ConfigFileUsed()
}
