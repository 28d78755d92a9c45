package ipc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Emit writes rec as JSON either to w, if given, or to "<ipcDir>/ipc-record.json"
// if w is nil. The receiving structured-output sink is an external
// collaborator; this package only needs to produce well-formed JSON.
func Emit(rec Record, ipcDir string, w io.Writer) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal IPC record: %w", err)
	}

	if w != nil {
		_, err := w.Write(append(data, '\n'))
		return err
	}

	return os.WriteFile(filepath.Join(ipcDir, "ipc-record.json"), data, 0o644)
}
