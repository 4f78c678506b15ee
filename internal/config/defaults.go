package config

const (
	defaultResourcesDir      = "./Assets/Resources"
	defaultPackagesSubdir    = "SamplePacks"
	defaultArtifactsSubdir   = "Artifacts"
	defaultDataDir           = "~/.local/share/soundpack/data"
	defaultLogDir            = "~/.local/share/soundpack/logs"
	defaultIndexPath         = "~/.local/share/soundpack/index.db"
	defaultExportsDir        = "~/.local/share/soundpack/exports"
	defaultManifestName      = "pack.json"
	defaultCatalogName       = "packs.json"
	defaultIncludePattern    = "*.wav"
	defaultCreator           = "Unknown Creator"
	defaultHashAlgorithm     = "sha256"
	defaultShortHashLength   = 16
	defaultProbeTimeout      = 30
	defaultUploadFileURL     = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	defaultUploadJSONURL     = "https://api.pinata.cloud/pinning/pinJSONToIPFS"
	defaultUploadGateway     = "https://ipfs.io/ipfs/"
	defaultUploadTimeout     = 120
	defaultExportCompression = "zstd"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 14
	resourcesDirEnv          = "SOUNDPACK_RESOURCES_DIR"
	uploadJWTEnv             = "PINATA_JWT"
	minShortHashLength       = 8
	maxShortHashLength       = 64
)

// Default returns a Config populated with repository defaults. Every call
// builds a fresh value so callers can mutate the result freely.
func Default() Config {
	return Config{
		Paths: Paths{
			ResourcesDir:    defaultResourcesDir,
			PackagesSubdir:  defaultPackagesSubdir,
			ArtifactsSubdir: defaultArtifactsSubdir,
			DataDir:         defaultDataDir,
			LogDir:          defaultLogDir,
			IndexPath:       defaultIndexPath,
			ExportsDir:      defaultExportsDir,
		},
		Packaging: Packaging{
			Include:        []string{defaultIncludePattern},
			ManifestName:   defaultManifestName,
			CatalogName:    defaultCatalogName,
			DefaultCreator: defaultCreator,
			Lock:           true,
		},
		Hashing: Hashing{
			Algorithm:   defaultHashAlgorithm,
			ShortLength: defaultShortHashLength,
		},
		Probe: Probe{
			FFprobeBinary:  "ffprobe",
			TimeoutSeconds: defaultProbeTimeout,
		},
		Upload: Upload{
			FileURL:        defaultUploadFileURL,
			JSONURL:        defaultUploadJSONURL,
			Gateway:        defaultUploadGateway,
			TimeoutSeconds: defaultUploadTimeout,
		},
		Export: Export{
			Compression: defaultExportCompression,
		},
		Index: Index{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
