package document

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Pending is the result of a deferred file write. The write cannot be
// cancelled once started; abandoning a Pending simply never observes it.
type Pending struct {
	g    errgroup.Group
	done chan struct{}
}

// start runs fn in the background, then every callback with its error.
func start(fn func() error, callbacks []func(error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	p.g.Go(func() error {
		defer close(p.done)
		err := fn()
		for _, cb := range callbacks {
			cb(err)
		}
		return err
	})
	return p
}

// failed returns a Pending that already failed with err.
func failed(err error, callbacks []func(error)) *Pending {
	return start(func() error { return err }, callbacks)
}

// Wait blocks until the write finished and returns its error. It may be
// called any number of times.
func (p *Pending) Wait() error {
	return p.g.Wait()
}

// Done is closed once the write and its callbacks have finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return errors.Wrapf(os.Rename(tmp, path), "renaming into %s", path)
}
