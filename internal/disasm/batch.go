package disasm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FileSuffix is appended to the contract name to form the output file name.
const FileSuffix = "_opcodes.txt"

// ContractError ties a failure to the contract it belongs to.
type ContractError struct {
	Name string
	Err  error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract %s: %v", e.Name, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// ErrInvalidName is returned for contract names that cannot be used as a
// file name inside the output directory.
var ErrInvalidName = errors.New("invalid contract name")

// CheckName rejects names that are empty or would leave the output
// directory: path separators and "..".
func CheckName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// FileName is the listing file name for a contract.
func FileName(contract string) string {
	return contract + FileSuffix
}

// Listing is the rendered disassembly of one contract.
type Listing struct {
	Name string
	Text string
}

// DisassembleAll disassembles every contract independently. Listings are
// returned sorted by name; contracts with invalid bytecode are left out and
// reported in the joined error.
func DisassembleAll(ctx context.Context, bytecodes map[string]string) ([]Listing, error) {
	var (
		mu       sync.Mutex
		listings []Listing
		errs     []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for name, bytecode := range bytecodes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := DisassembleHex(bytecode)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, &ContractError{Name: name, Err: err})
				return nil
			}
			listings = append(listings, Listing{Name: name, Text: text})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(listings, func(i, j int) bool { return listings[i].Name < listings[j].Name })
	return listings, joinSorted(errs)
}

// WriteFiles writes <name>_opcodes.txt into dir for every contract in
// bytecodes, creating dir if needed. A contract that cannot be decoded or
// written does not stop the others; all failures are joined in the result.
func WriteFiles(ctx context.Context, dir string, bytecodes map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create disassembly directory: %w", err)
	}

	listings, decodeErr := DisassembleAll(ctx, bytecodes)
	if err := ctx.Err(); err != nil {
		return err
	}

	errs := []error{decodeErr}
	for _, l := range listings {
		if err := CheckName(l.Name); err != nil {
			errs = append(errs, &ContractError{Name: l.Name, Err: err})
			continue
		}
		path := filepath.Join(dir, FileName(l.Name))
		if err := os.WriteFile(path, []byte(l.Text), 0o644); err != nil {
			errs = append(errs, &ContractError{Name: l.Name, Err: err})
			continue
		}
		slog.Debug("Wrote disassembly", "contract", l.Name, "path", path)
	}
	return errors.Join(errs...)
}

func joinSorted(errs []error) error {
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].(*ContractError).Name < errs[j].(*ContractError).Name
	})
	return errors.Join(errs...)
}
