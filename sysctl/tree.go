package sysctl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Tree serves tunables from a directory of decimal pseudo-files, the layout
// sysfs uses. Node "dev.pwm.0.ratio" lives at <root>/dev/pwm/0/ratio.
//
// Values are 4 or 8 byte native-endian integers on the Tunables side and
// base-10 text on disk.
type Tree struct {
	root string
}

// treeSettleTimeout bounds how long writes keep retrying while a freshly
// created node still has the wrong permissions.
var treeSettleTimeout = 2 * time.Second

func NewTree(root string) *Tree {
	return &Tree{root: root}
}

// Root returns the directory the tree is served from.
func (t *Tree) Root() string { return t.root }

func (t *Tree) path(name string) (string, error) {
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" || p == ".." || strings.ContainsRune(p, filepath.Separator) {
			return "", fmt.Errorf("sysctl: invalid node name %q", name)
		}
	}
	return filepath.Join(append([]string{t.root}, parts...)...), nil
}

func (t *Tree) WriteNamed(name string, value []byte) error {
	p, err := t.path(name)
	if err != nil {
		return err
	}
	var text string
	switch len(value) {
	case 4:
		text = strconv.FormatUint(uint64(binary.NativeEndian.Uint32(value)), 10)
	case 8:
		text = strconv.FormatUint(binary.NativeEndian.Uint64(value), 10)
	default:
		return fmt.Errorf("sysctl: write %s: unsupported value size %d", name, len(value))
	}
	if err := writePseudoFile(p, text); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("sysctl: write %s: %w", name, ErrNoSuchNode)
		}
		return fmt.Errorf("sysctl: write %s: %w", name, err)
	}
	return nil
}

func (t *Tree) ReadNamed(name string, size int) ([]byte, error) {
	p, err := t.path(name)
	if err != nil {
		return nil, err
	}
	n, err := readInt(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sysctl: read %s: %w", name, ErrNoSuchNode)
		}
		return nil, fmt.Errorf("sysctl: read %s: %w", name, err)
	}
	b := make([]byte, 8)
	binary.NativeEndian.PutUint64(b, uint64(n))
	switch {
	case size >= 8:
	case size >= 4:
		if n < 0 || n > math.MaxUint32 {
			return nil, fmt.Errorf("sysctl: read %s: value %d: %w", name, n, ErrOutOfRange)
		}
		b = encodeUint32(uint32(n))
	default:
		b = b[:0]
	}
	return b, nil
}

func (t *Tree) Resolve(name string) (Node, error) {
	p, err := t.path(name)
	if err != nil {
		return Node{}, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, ErrNoSuchNode)
		}
		return Node{}, fmt.Errorf("sysctl: resolve %s: %w", name, err)
	}
	return Node{name: name}, nil
}

func (t *Tree) ReadResolved(n Node, size int) ([]byte, error) {
	return t.ReadNamed(n.name, size)
}

func (t *Tree) WriteResolved(n Node, value []byte) error {
	return t.WriteNamed(n.name, value)
}

func writePseudoFile(path string, value string) error {
	// O_WRONLY without O_TRUNC/O_CREATE: pseudo-files reject truncation and
	// must never be created by us. Right after a node appears udev may still be
	// adjusting its permissions, so EACCES/EPERM are retried for a short while.
	deadline := time.Now().Add(treeSettleTimeout)
	var lastErr error
	for {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			lastErr = err
			if time.Now().Before(deadline) && isRetryablePseudoFileErr(err) {
				time.Sleep(25 * time.Millisecond)
				continue
			}
			return err
		}
		_, werr := f.WriteString(value)
		if werr == nil {
			// Plain files keep stale trailing bytes otherwise; pseudo-files
			// ignore or reject this.
			_ = f.Truncate(int64(len(value)))
		}
		cerr := f.Close()
		if werr == nil && cerr == nil {
			return nil
		}
		if werr != nil {
			lastErr = werr
		} else {
			lastErr = cerr
		}
		if time.Now().Before(deadline) && isRetryablePseudoFileErr(lastErr) {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		if werr != nil && cerr != nil {
			return errors.Join(werr, cerr)
		}
		return lastErr
	}
}

func isRetryablePseudoFileErr(err error) bool {
	return os.IsPermission(err) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM)
}

func readInt(path string) (int64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 10, 64)
		if uerr != nil {
			return 0, err
		}
		return int64(u), nil
	}
	return n, nil
}
