package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vk/optree/internal/hcl"
	"github.com/vk/optree/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Bytes returns a copy of the buffer's content.
func (b *SafeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.b.Bytes()...)
}

// SetupAppTest writes network to a temporary network.hcl, points appConfig
// at it and creates an app with debug logging. It returns the app, its
// report output and its log output.
func SetupAppTest(t *testing.T, appConfig *Config, network string, modules ...registry.Module) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "network.hcl")
	if err := os.WriteFile(path, []byte(network), 0o600); err != nil {
		t.Fatalf("failed to write network file: %v", err)
	}
	appConfig.NetworkPath = path
	appConfig.LogLevel = "debug"
	if appConfig.Output == "" {
		appConfig.Output = DefaultOutput
	}

	outBuffer, logBuffer := &SafeBuffer{}, &SafeBuffer{}
	testApp := NewApp(outBuffer, logBuffer, appConfig, hcl.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("OPTREE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}
