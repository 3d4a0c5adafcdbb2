package kubeconfig

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/azctl/azctl/pkg/errors"
)

// StdoutPath prints credentials instead of merging them.
const StdoutPath = "-"

// PrintOrMerge writes kubeconfig to out when path is "-", otherwise merges it into the
// file at path, creating the file and its directory when missing.
func PrintOrMerge(path string, kubeconfig []byte, opts MergeOptions, out io.Writer) error {
	if path == StdoutPath {
		if _, err := out.Write(kubeconfig); err != nil {
			return errors.Wrap(errors.ErrCodeFileOperation, "failed to print kubeconfig", err)
		}
		if !strings.HasSuffix(string(kubeconfig), "\n") {
			_, _ = io.WriteString(out, "\n")
		}
		return nil
	}

	if err := ensureFile(path); err != nil {
		return err
	}
	return MergeFile(path, kubeconfig, opts)
}

// MergeFile merges the addition document into the kubeconfig at path and writes it back.
func MergeFile(path string, addition []byte, opts MergeOptions) error {
	existing, err := Load(path)
	if err != nil {
		return err
	}
	add, err := Parse(addition)
	if err != nil {
		return errors.Newf(errors.ErrCodeCLI, "Error parsing additional configuration (%v)", err)
	}
	if add == nil {
		return errors.New(errors.ErrCodeCLI, "failed to load additional configuration")
	}

	if existing != nil {
		raw, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileOperation, fmt.Sprintf("failed to read %s", path), err)
		}
		opts.present = presentSections(raw)
	}

	merged, err := Merge(existing, add, opts)
	if err != nil {
		return err
	}

	warnPermissions(path)

	data, err := Marshal(merged)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileOperation, fmt.Sprintf("failed to write %s", path), err)
	}

	current := add.CurrentContext
	if current == "" {
		current = "UNKNOWN"
	}
	slog.Warn(fmt.Sprintf("Merged %q as current context in %s", current, path))
	return nil
}

func ensureFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(errors.ErrCodeFileOperation, fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileOperation, fmt.Sprintf("failed to create %s", path), err)
	}
	return f.Close()
}

// warnPermissions warns when the file is readable or writable by anyone but its owner.
func warnPermissions(path string) {
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		return
	}
	perms := fmt.Sprintf("%o", info.Mode().Perm())
	if !strings.HasSuffix(perms, "600") {
		slog.Warn(fmt.Sprintf("%s has permissions %q.\nIt should be readable and writable only by its owner.", path, perms))
	}
}
