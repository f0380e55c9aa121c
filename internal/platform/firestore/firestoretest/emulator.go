// Package firestoretest binds integration tests to a Firestore emulator.
package firestoretest

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	pconfig "github.com/naga-sai1/inv-ecommerce/internal/platform/config"
	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
)

const (
	emulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"
	readyTimeout  = 30 * time.Second
)

// Provider returns a provider for projectID on the emulator at FIRESTORE_EMULATOR_HOST, or on
// a throwaway docker container when that is unset. Without either the test is skipped.
func Provider(t testing.TB, projectID string) *pfirestore.Provider {
	t.Helper()
	host := strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST"))
	if host == "" {
		host = runEmulator(t)
	}
	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{ProjectID: projectID, EmulatorHost: host})
	t.Cleanup(func() { _ = provider.Close(context.Background()) })
	return provider
}

func runEmulator(t testing.TB) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
	if err := docker(5*time.Second, "info"); err != nil {
		t.Skipf("docker daemon unavailable: %v", err)
	}

	out, err := exec.Command("docker", "run", "-d", "--rm", "-p", "127.0.0.1::8080", emulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start", "--host-port=0.0.0.0:8080", "--quiet",
	).CombinedOutput()
	if err != nil {
		t.Fatalf("start firestore emulator: %v: %s", err, out)
	}
	id := strings.TrimSpace(string(out))
	t.Cleanup(func() { _ = docker(10*time.Second, "stop", id) })

	// "docker port" prints one binding per line, e.g. 127.0.0.1:49153.
	out, err = exec.Command("docker", "port", id, "8080/tcp").Output()
	if err != nil {
		t.Fatalf("resolve emulator port: %v", err)
	}
	host, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	waitReady(t, host)
	return host
}

// waitReady polls the emulator root, which answers 200 "Ok" once it accepts requests.
func waitReady(t testing.TB, host string) {
	t.Helper()
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(readyTimeout)
	for {
		resp, err := client.Get("http://" + host + "/")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("firestore emulator at %s not ready after %s (last error: %v)", host, readyTimeout, err)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

func docker(timeout time.Duration, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return exec.CommandContext(ctx, "docker", args...).Run()
}
