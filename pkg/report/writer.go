package report

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/lintang-b-s/Segmentx/pkg/util"
)

// WriteFile. replace path with whatever write produces. Content goes to a temp file in the same
// directory that is renamed over path only after a successful write and sync, so a failed run
// never leaves a torn file behind.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "create temp file in %s", dir)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "write %s", path)
	}
	if err = bw.Flush(); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "write %s", path)
	}
	if err = tmp.Sync(); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "sync %s", path)
	}
	if err = tmp.Close(); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "close %s", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "rename into %s", path)
	}
	return nil
}

// AppendFile. append whatever write produces to path, creating it when missing. The appended bytes
// are buffered in memory first so a failed write appends nothing.
func AppendFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "render %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "open %s", path)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return util.WrapErrorf(err, util.ErrIOFailure, "append %s", path)
	}
	if err := f.Close(); err != nil {
		return util.WrapErrorf(err, util.ErrIOFailure, "close %s", path)
	}
	return nil
}

// Save. write reports to path, atomically or appending.
func Save(path string, reports []*Report, appendMode bool) error {
	write := func(w io.Writer) error { return WriteAll(w, reports) }
	if appendMode {
		return AppendFile(path, write)
	}
	return WriteFile(path, write)
}

func SaveRoads(path string, lists []*RoadList, appendMode bool) error {
	write := func(w io.Writer) error { return WriteRoadLists(w, lists) }
	if appendMode {
		return AppendFile(path, write)
	}
	return WriteFile(path, write)
}
