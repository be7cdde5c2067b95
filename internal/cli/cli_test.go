package cli

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/bitmap"
	"github.com/anime-shed/image-quality-go/internal/report"
)

// run executes the command tree and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IQA_CONFIG", "")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, bitmap.Uniform(300, 300, bitmap.Gray, 128).Image()); err != nil {
		t.Fatalf("Failed to encode %s: %v", name, err)
	}
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	img := writePNG(t, dir, "gray.png")

	convey.Convey("Given a uniform gray image", t, func() {
		convey.Convey("The text output rates it Bad", func() {
			out, err := run(t, "analyze", img)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Bad")
			convey.So(out, convey.ShouldContainSubstring, "score 115")
		})

		convey.Convey("The JSON output carries the record", func() {
			out, err := run(t, "analyze", "--format", "json", img)
			convey.So(err, convey.ShouldBeNil)

			var rep report.Report
			convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
			convey.So(rep.Records, convey.ShouldHaveLength, 1)
			convey.So(rep.Records[0].Filename, convey.ShouldEqual, "gray.png")
			convey.So(rep.Records[0].Score, convey.ShouldEqual, 115)
			convey.So(rep.Preset, convey.ShouldEqual, "optimized")
		})

		convey.Convey("Features are listed on request", func() {
			out, err := run(t, "analyze", "--features", img)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, string(analyzer.Sharpness))
			convey.So(out, convey.ShouldContainSubstring, string(analyzer.TextureUniformity))
		})

		convey.Convey("A missing file is reported and fails the command", func() {
			out, err := run(t, "analyze", img, filepath.Join(dir, "absent.png"))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out, convey.ShouldContainSubstring, "absent.png")
			convey.So(out, convey.ShouldContainSubstring, "Error")
		})
	})
}

func TestBatchCommand(t *testing.T) {
	convey.Convey("Given a folder with two images and a text file", t, func() {
		dir := t.TempDir()
		writePNG(t, dir, "a.png")
		writePNG(t, dir, "b.png")
		if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o600); err != nil {
			t.Fatalf("Failed to write notes: %v", err)
		}

		convey.Convey("The report ranks the images and the CSV export has one row each", func() {
			csvPath := filepath.Join(t.TempDir(), "results.csv")
			out, err := run(t, "batch", dir, "--top", "1", "--output", csvPath, "--workers", "2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Total images:        2")
			convey.So(out, convey.ShouldContainSubstring, "TOP 1 BEST QUALITY")

			data, err := os.ReadFile(csvPath)
			convey.So(err, convey.ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			convey.So(lines, convey.ShouldHaveLength, 3)
		})

		convey.Convey("An explicit format overrides the extension", func() {
			path := filepath.Join(t.TempDir(), "results.out")
			_, err := run(t, "batch", dir, "--quiet", "--output", path, "--format", "yaml")
			convey.So(err, convey.ShouldBeNil)

			data, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldContainSubstring, "filename: a.png")
		})

		convey.Convey("An unknown extension without --format fails", func() {
			_, err := run(t, "batch", dir, "--quiet", "--output", filepath.Join(t.TempDir(), "results.out"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given an empty folder", t, func() {
		_, err := run(t, "batch", t.TempDir())

		convey.Convey("The command fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "no image files")
		})
	})
}

func TestPresetsCommand(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		out, err := run(t, "presets", "list")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		for _, name := range analyzer.PresetNames() {
			if !strings.Contains(out, name) {
				t.Errorf("Expected %s in listing, got %s", name, out)
			}
		}
	})

	t.Run("show reloads", func(t *testing.T) {
		out, err := run(t, "presets", "show", "ultrafast")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		cfg, err := analyzer.LoadProfile(strings.NewReader(out), analyzer.DefaultConfig())
		if err != nil {
			t.Fatalf("Expected the profile to reload, got %v", err)
		}
		if want := analyzer.UltraFastConfig().AnalysisSize; cfg.AnalysisSize != want {
			t.Errorf("Expected analysis size %d, got %d", want, cfg.AnalysisSize)
		}
	})

	t.Run("lint preset", func(t *testing.T) {
		if _, err := run(t, "presets", "lint", "smart"); err != nil {
			t.Errorf("Expected smart to lint cleanly, got %v", err)
		}
	})

	t.Run("lint unknown preset", func(t *testing.T) {
		out, err := run(t, "presets", "lint", "blurry")
		if err == nil {
			t.Fatal("Expected an error for an unknown preset")
		}
		if !strings.Contains(out, "invalid_profile") {
			t.Errorf("Expected invalid_profile issue, got %s", out)
		}
	})

	t.Run("lint rules file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		doc := "features:\n  - feature: noise\n    rules:\n      - above: 10\n        penalty: 5\n      - above: 20\n        penalty: 8\n"
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("Failed to write rules: %v", err)
		}
		out, err := run(t, "presets", "lint", "--rules", path)
		if err != nil {
			t.Fatalf("Expected warnings only, got %v", err)
		}
		if !strings.Contains(out, "shadowed_rule") {
			t.Errorf("Expected shadowed_rule issue, got %s", out)
		}
	})
}
