package libtga

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

func isTGA(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".tga", ".tpic", ".icb", ".vda", ".vst":
		return true
	}
	return false
}

func crcFile(file string) (string, int64, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}

	return fmt.Sprintf("%.*X", crc32.Size<<1, h.Sum(nil)), n, nil
}

func (t *Tools) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal TGA file
			if !info.Mode().IsRegular() || !isTGA(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// indexFile reads the header of file and stores it in the catalog. Files that
// are not valid TGA images are logged and skipped.
func (t *Tools) indexFile(file string) error {
	in, err := t.open(file, "r")
	if err != nil {
		return err
	}
	defer in.Close()

	if err := in.ReadHeader(); err != nil {
		t.logger.Printf("Skipping \"%s\": %v\n", file, err)
		return nil
	}

	crc, size, err := crcFile(file)
	if err != nil {
		return err
	}

	if err := t.db.Add(newEntry(file, size, crc, in.Header)); err != nil {
		return err
	}

	t.logger.Printf("Indexed \"%s\", %dx%d %s, CRC \"%s\"\n", file, in.Header.Width, in.Header.Height, in.Header.Type, crc)

	return nil
}

func (t *Tools) indexWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := t.indexFile(file); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Index walks path and adds every TGA file found to the catalog.
func (t *Tools) Index(path string) error {
	if t.db == nil {
		return errNoCatalog
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := t.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	workers := t.Workers
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		errc, err := t.indexWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
