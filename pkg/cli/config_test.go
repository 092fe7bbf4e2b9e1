package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

func TestLoadConfigWithPath_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bipbuf", "config.yaml")

	cfg, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatalf("LoadConfigWithPath() error = %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
	if len(cfg.Profiles) != 0 {
		t.Errorf("Profiles = %v, want empty", cfg.Profiles)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("loading must not create the file, stat err = %v", err)
	}
}

func TestConfig_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bipbuf", "config.yaml")
	cfg, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.SetProfile("small", &Profile{Capacity: 1024, PageSize: 256, Allocator: AllocatorPool}); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if err := cfg.SetProfile("large", &Profile{Capacity: 1 << 20, MaxCapacity: 4 << 20}); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if err := cfg.UseProfile("small"); err != nil {
		t.Fatalf("UseProfile() error = %v", err)
	}

	reloaded, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if reloaded.CurrentProfile != "small" {
		t.Errorf("CurrentProfile = %q, want small", reloaded.CurrentProfile)
	}
	names := reloaded.ListProfiles()
	if len(names) != 2 || names[0] != "large" || names[1] != "small" {
		t.Errorf("ListProfiles() = %v, want [large small]", names)
	}
	p, err := reloaded.ResolveProfile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "small" || p.Capacity != 1024 || p.PageSize != 256 || p.Allocator != AllocatorPool {
		t.Errorf("ResolveProfile(\"\") = %+v", p)
	}
}

func TestConfig_UseUnknownProfile(t *testing.T) {
	cfg, err := LoadConfigWithPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.UseProfile("nope"); err == nil {
		t.Error("UseProfile(nope) should fail")
	}
	if _, err := cfg.ResolveProfile("nope"); err == nil {
		t.Error("ResolveProfile(nope) should fail")
	}
}

func TestConfig_DeleteCurrentProfile(t *testing.T) {
	cfg, err := LoadConfigWithPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetProfile("p", &Profile{Capacity: 64}); err != nil {
		t.Fatal(err)
	}
	if err := cfg.UseProfile("p"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.DeleteProfile("p"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	if cfg.CurrentProfile != "" {
		t.Errorf("CurrentProfile = %q, want empty", cfg.CurrentProfile)
	}
	p, err := cfg.ResolveProfile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != DefaultProfileName {
		t.Errorf("fallback profile = %q, want %q", p.Name, DefaultProfileName)
	}
	if err := cfg.DeleteProfile("p"); err == nil {
		t.Error("deleting twice should fail")
	}
}

func TestLoadConfigWithPath_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "profiles: [\n"},
		{"negative capacity", "profiles:\n  p:\n    capacity: -1\n"},
		{"unknown allocator", "profiles:\n  p:\n    allocator: mmap\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfigWithPath(path); err == nil {
				t.Errorf("LoadConfigWithPath(%q) should fail", tt.data)
			}
		})
	}
}

func TestProfile_NewBuffer(t *testing.T) {
	p := &Profile{Name: "t", Capacity: 1000, PageSize: 512, Allocator: AllocatorPool, MaxCapacity: 1024}
	bb, err := p.NewBuffer(nil)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if bb.Cap() != 1024 {
		t.Errorf("Cap() = %d, want 1024", bb.Cap())
	}
	if err := bb.Grow(2048); err == nil {
		t.Error("Grow beyond max_capacity should fail")
	}
	if bb.Cap() != 1024 {
		t.Errorf("failed Grow changed Cap() to %d", bb.Cap())
	}

	if _, ok := (&Profile{}).NewAllocator().(buffer.HeapAllocator); !ok {
		t.Error("empty allocator name should select the heap allocator")
	}
}

func TestProfile_Chunk(t *testing.T) {
	if got := (&Profile{}).Chunk(); got != 4096 {
		t.Errorf("Chunk() = %d, want 4096", got)
	}
	if got := (&Profile{ChunkSize: 100}).Chunk(); got != 100 {
		t.Errorf("Chunk() = %d, want 100", got)
	}
}

func TestProfile_Set(t *testing.T) {
	p := DefaultProfile()
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"capacity", "16K", false},
		{"page_size", "1024", false},
		{"limit", "8KB", false},
		{"chunk_size", "512", false},
		{"max_capacity", "1M", false},
		{"allocator", "pool", false},
		{"allocator", "mmap", true},
		{"capacity", "-5", true},
		{"capacity", "lots", true},
		{"colour", "red", true},
	}
	for _, tt := range tests {
		err := p.Set(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
		if tt.wantErr {
			p = DefaultProfile()
		}
	}

	p = DefaultProfile()
	if err := p.Set("capacity", "16K"); err != nil {
		t.Fatal(err)
	}
	if p.Capacity != 16<<10 {
		t.Errorf("Capacity = %d, want %d", p.Capacity, 16<<10)
	}
}
