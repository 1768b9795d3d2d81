package open

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Zuo-Peng/softsplit/internal/index"
)

// OpenOutput opens the TSV recorded for fileKey/name in $EDITOR, or less.
func OpenOutput(db *index.DB, fileKey, name string) error {
	out, err := db.GetOutput(fileKey, name)
	if err != nil {
		return fmt.Errorf("get output: %w", err)
	}
	if out == nil {
		return fmt.Errorf("output not found: %s/%s", fileKey, name)
	}

	if _, err := os.Stat(out.Path); err != nil {
		return fmt.Errorf("file not found: %s", out.Path)
	}

	cmd := editorCommand(os.Getenv("EDITOR"), out.Path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, filePath string) *exec.Cmd {
	if editor == "" {
		editor = "less"
	}

	switch {
	case strings.Contains(editor, "less"):
		// -S keeps wide rows on one line
		return exec.Command(editor, "-S", filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":1")
	default:
		return exec.Command(editor, filePath)
	}
}
