package config

type AppConfig struct {
	Server ServerConfig
	Cache  CacheConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	cacheCfg, err := LoadCache()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Cache:  cacheCfg,
		Log:    logCfg,
	}, nil
}
