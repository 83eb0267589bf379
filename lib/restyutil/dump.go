// Package restyutil keeps a copy of every http exchange a resty client
// makes, which is the quickest way to see what markup a selector ran into.
package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Output receives one rendered exchange per completed request.
type Output interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http exchange", "id", id, "err", err)
	}
}

// Dump writes every exchange of client to output under the id
// "<prefix>-<n>", n counting up from 1 for each client.
func Dump(client *resty.Client, prefix string, output Output) {
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprintf("%s-%04d", prefix, atomic.AddUint64(&idcounter, 1))
		output.Write(id, FormatExchange(res))
		return nil
	})
}
