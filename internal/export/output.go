package export

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"github.com/mrsinham/omeforge/internal/logging"
	"github.com/mrsinham/omeforge/internal/ome"
)

// Output is an open output resource: a locked path and the sink writing it
type Output struct {
	path   string
	sink   Sink
	lock   *flock.Flock
	logger *slog.Logger
	closed bool
}

// OpenOutput locks path, removes any stale file there and opens a sink bound
// to meta. meta must be complete; it is not modified afterwards except by the
// sink itself.
func OpenOutput(path string, meta *ome.OME, opener Opener, logger *slog.Logger) (*Output, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.Path(path))
	if opener == nil {
		opener = OMETIFF
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		err = wrap(ErrWriterInit, "lock output", err)
		logger.Error("output lock failed", logging.Error(err))
		return nil, err
	}
	if !locked {
		err = wrap(ErrWriterInit, "lock output", fmt.Errorf("%s is being written by another export", path))
		logger.Error("output busy", logging.Error(err))
		return nil, err
	}

	removeStale(path, logger)

	sink, err := opener.Open(path, meta)
	if err != nil {
		err = wrap(ErrWriterInit, "open output", err)
		logger.Error("output open failed", logging.Error(err))
		releaseLock(lock, logger)
		return nil, err
	}
	logger.Debug("output opened", logging.Int("series_count", len(meta.Images)))

	return &Output{path: path, sink: sink, lock: lock, logger: logger}, nil
}

// removeStale deletes a previous export at path. Failures are logged only:
// the sink truncates the file anyway.
func removeStale(path string, logger *slog.Logger) {
	err := os.Remove(path)
	switch {
	case err == nil:
		logger.Info("removed stale output")
	case errors.Is(err, fs.ErrNotExist):
	default:
		logger.Warn("stale output not removed", logging.Error(err))
	}
}

func releaseLock(lock *flock.Flock, logger *slog.Logger) error {
	if err := lock.Unlock(); err != nil {
		logger.Warn("output unlock failed", logging.Error(err))
		return err
	}
	if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Debug("lock file not removed", logging.Error(err))
	}
	return nil
}

// Path returns the path the output was opened at
func (o *Output) Path() string {
	return o.path
}

// Series returns the active series
func (o *Output) Series() int {
	return o.sink.Series()
}

// SelectSeries makes series the target of subsequent SavePlane calls
func (o *Output) SelectSeries(series int) error {
	if o.closed {
		return ErrAlreadyClosed
	}
	if err := o.sink.SetSeries(series); err != nil {
		err = wrap(ErrPlaneWrite, fmt.Sprintf("select series %d", series), err)
		o.logger.Error("series selection failed", logging.Series(series), logging.Error(err))
		return err
	}
	return nil
}

// SavePlane writes plane t of the active series
func (o *Output) SavePlane(t int, plane []byte) error {
	if o.closed {
		return ErrAlreadyClosed
	}
	series := o.sink.Series()
	if err := o.sink.SaveBytes(t, plane); err != nil {
		err = wrap(ErrPlaneWrite, fmt.Sprintf("save plane %d of series %d", t, series), err)
		o.logger.Error("plane write failed", logging.Series(series), logging.Plane(t), logging.Error(err))
		return err
	}
	return nil
}

// Close flushes the sink and releases the lock. It must be called exactly
// once; later calls return ErrAlreadyClosed.
func (o *Output) Close() error {
	if o.closed {
		return ErrAlreadyClosed
	}
	o.closed = true

	var errs []error
	if err := o.sink.Close(); err != nil {
		err = wrap(ErrClose, "close output", err)
		o.logger.Error("output close failed", logging.Error(err))
		errs = append(errs, err)
	}
	if err := releaseLock(o.lock, o.logger); err != nil {
		errs = append(errs, wrap(ErrClose, "unlock output", err))
	}
	if len(errs) == 0 {
		o.logger.Debug("output closed")
	}
	return errors.Join(errs...)
}
