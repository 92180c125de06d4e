package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DirectoryPusher writes one rendered fragment per node into a directory
type DirectoryPusher struct {
	dir    string
	ext    string
	logger *zap.Logger
}

// NewDirectoryPusher creates a pusher writing <node><ext> files into dir
func NewDirectoryPusher(dir, ext string, logger *zap.Logger) *DirectoryPusher {
	if ext == "" {
		ext = ".yaml"
	}
	return &DirectoryPusher{dir: dir, ext: ext, logger: logger}
}

// Push writes the fragment for nodeID, replacing any previous file
func (p *DirectoryPusher) Push(ctx context.Context, nodeID string, fragment []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if nodeID == "" || filepath.Base(nodeID) != nodeID {
		return fmt.Errorf("invalid node id %q", nodeID)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(p.dir, "."+nodeID+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(fragment); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write fragment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close fragment: %w", err)
	}

	target := filepath.Join(p.dir, nodeID+p.ext)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to commit fragment: %w", err)
	}

	p.logger.Debug("wrote fragment", zap.String("node", nodeID), zap.String("path", target))
	return nil
}
