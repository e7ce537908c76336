package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

// Workspace is the ephemeral directory owned by one in-flight request.
// It is created at staging and removed on every terminal path.
type Workspace struct {
	Root       string
	SourcePath string
	BinaryPath string
}

// stageWorkspace creates a uniquely named scratch directory and copies
// the source file into it under its original name.
func stageWorkspace(workRoot, sourcePath string) (Workspace, error) {
	if workRoot == "" {
		workRoot = os.TempDir()
	}
	root := filepath.Join(workRoot, "run-"+uuid.NewString())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Workspace{}, appErr.Wrapf(err, appErr.WorkspaceError, "create scratch workspace failed")
	}

	ws := Workspace{
		Root:       root,
		SourcePath: filepath.Join(root, filepath.Base(sourcePath)),
		BinaryPath: filepath.Join(root, binaryName()),
	}
	if err := copyFile(sourcePath, ws.SourcePath); err != nil {
		_ = os.RemoveAll(root)
		return Workspace{}, err
	}
	return ws, nil
}

// Cleanup removes the workspace. Failures are recorded, never escalated.
func (w Workspace) Cleanup(ctx context.Context) {
	if w.Root == "" {
		return
	}
	if err := os.RemoveAll(w.Root); err != nil {
		logger.Warn(ctx, "scratch workspace cleanup failed",
			zap.String("root", w.Root), zap.Error(err))
	}
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "program.exe"
	}
	return "program"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return appErr.Wrapf(err, appErr.SourceNotFound, "open source failed")
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return appErr.Wrapf(err, appErr.WorkspaceError, "stage source failed")
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return appErr.Wrapf(err, appErr.WorkspaceError, "copy source failed")
	}
	return nil
}
