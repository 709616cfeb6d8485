package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioTestConfig defines one run of the sslopts binary.
type ScenarioTestConfig struct {
	Name        string
	Description string
	// Tags selects the backend profile the binary is built with.
	Tags   string
	Setup  func(t *testing.T, dir string) []string // returns the sslopts arguments
	Verify func(t *testing.T, stdout, stderr string, err error)
}

// buildBinary compiles cmd/sslopts with the given build tags into dir.
func buildBinary(t *testing.T, dir, tags string) string {
	t.Helper()
	name := "sslopts-test"
	if tags != "" {
		name += "-" + strings.ReplaceAll(tags, ",", "-")
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	out := filepath.Join(dir, name)

	args := []string{"build", "-o", out}
	if tags != "" {
		args = append(args, "-tags", tags)
	}
	// Path is relative to test/integration directory
	args = append(args, "../../cmd/sslopts")

	buildCmd := exec.Command("go", args...)
	buildCmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build sslopts binary: %v\nOutput: %s", err, output)
	}
	return out
}

func run(binary string, args ...string) (string, string, error) {
	cmd := exec.Command(binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestScenarios(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the sslopts binary")
	}

	binDir := t.TempDir()
	binaries := map[string]string{}
	binaryFor := func(t *testing.T, tags string) string {
		if bin, ok := binaries[tags]; ok {
			return bin
		}
		bin := buildBinary(t, binDir, tags)
		binaries[tags] = bin
		return bin
	}

	tests := []ScenarioTestConfig{
		{
			Name:        "Scenario 1: Modern Profile Capabilities",
			Description: "Default build supports ALPN and lacks NPN",
			Setup: func(t *testing.T, dir string) []string {
				return []string{"capabilities", "-o", "json"}
			},
			Verify: func(t *testing.T, stdout, stderr string, err error) {
				view := decodeCapabilities(t, stdout, err)
				if view.Profile != "modern" {
					t.Errorf("Expected modern profile, got %s", view.Profile)
				}
				assertListed(t, view.Supported, "alpn")
				assertListed(t, view.Unsupported, "npn")
			},
		},
		{
			Name:        "Scenario 2: NPN Profile Capabilities",
			Description: "sslbackend_npn enables NPN",
			Tags:        "sslbackend_npn",
			Setup: func(t *testing.T, dir string) []string {
				return []string{"capabilities", "-o", "json"}
			},
			Verify: func(t *testing.T, stdout, stderr string, err error) {
				view := decodeCapabilities(t, stdout, err)
				if view.Profile != "npn" {
					t.Errorf("Expected npn profile, got %s", view.Profile)
				}
				assertListed(t, view.Supported, "npn")
			},
		},
		{
			Name:        "Scenario 3: Legacy Profile Rejects Modern Options",
			Description: "A TLS 1.3 floor is not legal on the legacy backend",
			Tags:        "sslbackend_legacy",
			Setup: func(t *testing.T, dir string) []string {
				path := writeTempConfig(t, dir, map[string]interface{}{"min_version": "1.3"})
				return []string{"resolve", "-c", path}
			},
			Verify: func(t *testing.T, stdout, stderr string, err error) {
				if err == nil {
					t.Fatalf("Expected resolve to fail, got output:\n%s", stdout)
				}
				if !strings.Contains(stderr, "min_version") {
					t.Errorf("Expected error to name min_version, got: %s", stderr)
				}
			},
		},
		{
			Name:        "Scenario 4: Generated Trust Chain",
			Description: "certgen output checks cleanly",
			Setup: func(t *testing.T, dir string) []string {
				bin := binaryFor(t, "")
				if _, stderr, err := run(bin, "certgen", "--out", dir); err != nil {
					t.Fatalf("certgen failed: %v\n%s", err, stderr)
				}
				return []string{"check", "-c", filepath.Join(dir, "ssl.yaml"), "-o", "json", "--strict"}
			},
			Verify: func(t *testing.T, stdout, stderr string, err error) {
				if err != nil {
					t.Fatalf("check failed: %v\n%s", err, stderr)
				}
				var report map[string]interface{}
				if err := json.Unmarshal([]byte(stdout), &report); err != nil {
					t.Fatalf("Failed to decode report: %v\n%s", err, stdout)
				}
				if report["root_source"] != "custom" {
					t.Errorf("Expected custom roots, got %v", report["root_source"])
				}
			},
		},
		{
			Name:        "Scenario 5: Secrets Stay Redacted",
			Description: "resolve never prints a key password",
			Setup: func(t *testing.T, dir string) []string {
				t.Setenv("SSLOPTS_SCENARIO_PASSWORD", "correct horse")
				bin := binaryFor(t, "")
				if _, stderr, err := run(bin, "certgen", "--out", dir, "--key-password-env", "SSLOPTS_SCENARIO_PASSWORD"); err != nil {
					t.Fatalf("certgen failed: %v\n%s", err, stderr)
				}
				return []string{"resolve", "-c", filepath.Join(dir, "ssl.yaml"), "-l", "debug"}
			},
			Verify: func(t *testing.T, stdout, stderr string, err error) {
				if err != nil {
					t.Fatalf("resolve failed: %v\n%s", err, stderr)
				}
				if strings.Contains(stdout+stderr, "correct horse") {
					t.Error("Key password leaked into output")
				}
				if !strings.Contains(stdout, "[REDACTED]") {
					t.Errorf("Expected redacted password, got:\n%s", stdout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			bin := binaryFor(t, tt.Tags)
			args := tt.Setup(t, t.TempDir())

			stdout, stderr, err := run(bin, args...)
			tt.Verify(t, stdout, stderr, err)

			if t.Failed() {
				t.Logf("sslopts Stdout:\n%s", stdout)
				t.Logf("sslopts Stderr:\n%s", stderr)
			}
		})
	}
}

func TestWatchServesMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the sslopts binary")
	}

	dir := t.TempDir()
	bin := buildBinary(t, t.TempDir(), "")
	if _, stderr, err := run(bin, "certgen", "--out", dir); err != nil {
		t.Fatalf("certgen failed: %v\n%s", err, stderr)
	}

	addr := freeAddr(t)
	cmd := exec.Command(bin, "watch", "-c", filepath.Join(dir, "ssl.yaml"), "--metrics-addr", addr, "--log-level", "debug")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start sslopts: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			if runtime.GOOS == "windows" {
				cmd.Process.Kill()
			} else {
				cmd.Process.Signal(os.Interrupt)
			}
			cmd.Wait()
		}
	}()

	waitForServer(t, "http://"+addr+"/healthz", &stdout, &stderr)

	var body string
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		body = fetch(t, "http://"+addr+"/metrics")
		if strings.Contains(body, "tls_client_configs_total") && strings.Contains(body, "tls_certificate_expiry_timestamp") {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	for _, want := range []string{
		`sslopts_config_reloads_total{result="success"} 1`,
		"sslopts_config_generation 1",
		"tls_client_configs_total",
		"tls_certificate_expiry_timestamp",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}

	if t.Failed() {
		t.Logf("Metrics:\n%s", body)
		t.Logf("sslopts Stderr:\n%s", stderr.String())
	}
}

type capabilityView struct {
	Profile     string   `json:"profile"`
	Supported   []string `json:"supported"`
	Unsupported []string `json:"unsupported"`
}

func decodeCapabilities(t *testing.T, stdout string, err error) capabilityView {
	t.Helper()
	if err != nil {
		t.Fatalf("capabilities failed: %v", err)
	}
	var view capabilityView
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("Failed to decode capabilities: %v\n%s", err, stdout)
	}
	return view
}

func assertListed(t *testing.T, kinds []string, want string) {
	t.Helper()
	for _, k := range kinds {
		if k == want {
			return
		}
	}
	t.Errorf("Expected %q in %v", want, kinds)
}

func writeTempConfig(t *testing.T, dir string, cfg map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	path := filepath.Join(dir, "ssl.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func fetch(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func waitForServer(t *testing.T, url string, stdout, stderr *bytes.Buffer) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Server did not become ready at %s\nStdout: %s\nStderr: %s", url, stdout.String(), stderr.String())
}
