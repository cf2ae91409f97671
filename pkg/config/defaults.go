// Package config provides centralized default values for gathersync
package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s", key, val)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%v (default: %v)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

// Server configuration
var (
	ServerPort         = func() string { loadEnvFile(); return getEnvString("GATHERSYNC_PORT", "8700") }()
	ServerReadTimeout  = getEnvDuration("GATHERSYNC_READ_TIMEOUT", 30*time.Second)
	ServerWriteTimeout = getEnvDuration("GATHERSYNC_WRITE_TIMEOUT", 60*time.Second)
	ServerIdleTimeout  = getEnvDuration("GATHERSYNC_IDLE_TIMEOUT", 120*time.Second)
)

// Origin configuration
var (
	OriginURL          = getEnvString("GATHERSYNC_ORIGIN_URL", "http://localhost:3000")
	OriginFetchTimeout = getEnvDuration("GATHERSYNC_ORIGIN_TIMEOUT", 15*time.Second)
	OriginHealthPath   = getEnvString("GATHERSYNC_ORIGIN_HEALTH_PATH", "/api/health")
)

// Storage configuration
var (
	DataDir      = getEnvString("GATHERSYNC_DATA_DIR", "./data")
	CacheBackend = getEnvString("GATHERSYNC_CACHE_BACKEND", "leveldb")
)

// Background worker configuration
var (
	CleanupInterval       = getEnvDuration("GATHERSYNC_CLEANUP_INTERVAL", 10*time.Minute)
	CleanupVerbose        = getEnvBool("GATHERSYNC_CLEANUP_VERBOSE", false)
	NetworkProbeInterval  = getEnvDuration("GATHERSYNC_PROBE_INTERVAL", 15*time.Second)
	ReplayMaxRetries      = getEnvInt("GATHERSYNC_REPLAY_MAX_RETRIES", 5)
	PageStalenessInterval = getEnvDuration("GATHERSYNC_PAGE_STALENESS", 5*time.Minute)
	RecentFetchLimit      = getEnvInt("GATHERSYNC_RECENT_LIMIT", 10)
)

// Security configuration
var (
	JWTSecret         = getEnvString("GATHERSYNC_JWT_SECRET", "")
	AdminPasswordHash = getEnvString("GATHERSYNC_ADMIN_PASSWORD_HASH", "")
	TokenLifetime     = getEnvDuration("GATHERSYNC_TOKEN_LIFETIME", 12*time.Hour)
)

// CacheVersion tags partition identities. Bumping it on deploy orphans the
// previous version's partitions for deletion during activation.
var CacheVersion = getEnvInt("GATHERSYNC_CACHE_VERSION", 3)

// CacheFormatVersion is stamped into every cached entry's metadata headers.
var CacheFormatVersion = getEnvString("GATHERSYNC_CACHE_FORMAT_VERSION", "gathersync-v2")

// PartitionClass identifies one of the named cache partitions.
type PartitionClass string

const (
	PartitionGeneric PartitionClass = "generic"
	PartitionStatic  PartitionClass = "static"
	PartitionDynamic PartitionClass = "dynamic"
	PartitionAPI     PartitionClass = "api"
	PartitionPages   PartitionClass = "pages"
	PartitionShell   PartitionClass = "shell"
)

// AllPartitionClasses lists every partition class in a stable order.
var AllPartitionClasses = []PartitionClass{
	PartitionGeneric, PartitionStatic, PartitionDynamic,
	PartitionAPI, PartitionPages, PartitionShell,
}

// PartitionSpec holds the policy knobs for one partition. A zero MaxAge
// means entries in the partition never expire by age.
type PartitionSpec struct {
	Name       string
	MaxEntries int
	MaxAge     time.Duration
}

// CacheConfig is the immutable cache policy object constructed once at
// startup and injected into every component that needs policy lookups.
type CacheConfig struct {
	Version       int
	FormatVersion string
	Partitions    map[PartitionClass]PartitionSpec
}

// NewCacheConfig builds the current version's partition table.
func NewCacheConfig() *CacheConfig {
	version := CacheVersion
	name := func(class PartitionClass) string {
		return fmt.Sprintf("gathersync-%s-v%d", class, version)
	}

	return &CacheConfig{
		Version:       version,
		FormatVersion: CacheFormatVersion,
		Partitions: map[PartitionClass]PartitionSpec{
			PartitionGeneric: {Name: name(PartitionGeneric), MaxEntries: getEnvInt("GATHERSYNC_GENERIC_MAX", 150), MaxAge: getEnvDuration("GATHERSYNC_GENERIC_TTL", 24*time.Hour)},
			PartitionStatic:  {Name: name(PartitionStatic), MaxEntries: getEnvInt("GATHERSYNC_STATIC_MAX", 100), MaxAge: getEnvDuration("GATHERSYNC_STATIC_TTL", 7*24*time.Hour)},
			PartitionDynamic: {Name: name(PartitionDynamic), MaxEntries: getEnvInt("GATHERSYNC_DYNAMIC_MAX", 75), MaxAge: getEnvDuration("GATHERSYNC_DYNAMIC_TTL", time.Hour)},
			PartitionAPI:     {Name: name(PartitionAPI), MaxEntries: getEnvInt("GATHERSYNC_API_MAX", 50), MaxAge: getEnvDuration("GATHERSYNC_API_TTL", 5*time.Minute)},
			PartitionPages:   {Name: name(PartitionPages), MaxEntries: getEnvInt("GATHERSYNC_PAGES_MAX", 15), MaxAge: getEnvDuration("GATHERSYNC_PAGES_TTL", 15*time.Minute)},
			PartitionShell:   {Name: name(PartitionShell), MaxEntries: getEnvInt("GATHERSYNC_SHELL_MAX", 25), MaxAge: 0},
		},
	}
}

// Spec returns the policy for a partition class.
func (c *CacheConfig) Spec(class PartitionClass) PartitionSpec {
	return c.Partitions[class]
}

// Name returns the versioned identity string for a partition class.
func (c *CacheConfig) Name(class PartitionClass) string {
	return c.Partitions[class].Name
}

// CurrentNames returns the allow-list of partition identities for the
// current version. Activation deletes every partition not on this list.
func (c *CacheConfig) CurrentNames() []string {
	names := make([]string, 0, len(c.Partitions))
	for _, class := range AllPartitionClasses {
		names = append(names, c.Partitions[class].Name)
	}
	return names
}

// ClassOf resolves a versioned partition name back to its class.
func (c *CacheConfig) ClassOf(name string) (PartitionClass, bool) {
	for class, spec := range c.Partitions {
		if spec.Name == name {
			return class, true
		}
	}
	return "", false
}
