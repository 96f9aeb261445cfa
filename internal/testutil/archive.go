package testutil

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"
)

// ZipFile describes one archive member.
type ZipFile struct {
	Content string
	Mode    fs.FileMode
}

// Zip builds an in-memory zip archive. Keys are slash-separated member paths;
// a trailing slash creates an explicit directory entry.
func Zip(t *testing.T, files map[string]ZipFile) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		file := files[name]
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		mode := file.Mode
		if mode == 0 {
			mode = 0o644
		}
		if name[len(name)-1] == '/' {
			mode = fs.ModeDir | 0o755
		}
		header.SetMode(mode)

		fw, err := w.CreateHeader(header)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if mode.IsDir() {
			continue
		}
		if _, err := fw.Write([]byte(file.Content)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// RepoArchive builds a GitHub-style branch archive: every file is placed
// under "<name>-<branch>/app/".
func RepoArchive(t *testing.T, name, branch string, appFiles map[string]string) []byte {
	t.Helper()

	prefix := name + "-" + branch + "/"
	files := map[string]ZipFile{}
	files[prefix] = ZipFile{}
	files[prefix+"app/"] = ZipFile{}
	files[prefix+"README.md"] = ZipFile{Content: "# " + name + "\n"}
	for rel, content := range appFiles {
		files[path.Join(prefix, "app", rel)] = ZipFile{Content: content}
	}
	return Zip(t, files)
}

// WriteTree creates files under dir from a map of slash-separated relative
// paths to contents.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", target, err)
		}
	}
}

// ReadTree returns every regular file under dir keyed by slash-separated
// relative path.
func ReadTree(t *testing.T, dir string) map[string]string {
	t.Helper()

	tree := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return tree
}
