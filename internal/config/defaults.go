package config

const (
	defaultConfigPath      = "~/.config/assetsync/config.toml"
	projectConfigName      = "assetsync.toml"
	defaultManifestPath    = "assets/manifest.yaml"
	defaultHistoryDB       = "~/.local/share/assetsync/history.db"
	defaultFolderName      = "AVMI-GVSC-Audio-Assets"
	defaultManifestVersion = "1.0"
	defaultScanWorkers     = 4
	maxScanWorkers         = 64
	defaultLogFormat       = "console"
	defaultLogLevel        = "warn"

	// StorageRootEnv names the environment variable consulted when
	// storage.base_path is unset.
	StorageRootEnv = "ASSETSYNC_STORAGE_ROOT"
)

func defaultSearchRoots() []string {
	return []string{"~/Dropbox (Personal)", "~/Dropbox", "~/Dropbox (Work)"}
}

func defaultSubfolders() []string {
	return []string{"samples", "presets", "templates", "evaluation_data", "raw_recordings", "processed"}
}

// DefaultIgnore lists file names that sync clients and desktop shells leave
// behind inside category folders.
func DefaultIgnore() []string {
	return []string{".DS_Store", "desktop.ini", "Thumbs.db", ".dropbox", ".dropbox.attr", "Icon\r", ".~*", ".*.tmp"}
}

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Manifest:  defaultManifestPath,
			HistoryDB: defaultHistoryDB,
		},
		Storage: Storage{
			FolderName:  defaultFolderName,
			SearchRoots: defaultSearchRoots(),
			Subfolders:  defaultSubfolders(),
		},
		Scan: Scan{
			Workers: defaultScanWorkers,
			Ignore:  DefaultIgnore(),
		},
		Manifest: Manifest{
			Version: defaultManifestVersion,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
