// Package linker substitutes deployed library addresses into unlinked bytecode.
//
// Two placeholder styles are understood: the legacy truffle form
// `__Name____…` padded with underscores to 40 characters, and the solc form
// `__$<first 17 bytes of keccak256(fully qualified name)>$__`.
package linker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const placeholderLength = 40

var (
	ErrLibraryNotDeployed = errors.New("linker: library not deployed")
	ErrUnlinkedLibrary    = errors.New("linker: bytecode still references unlinked libraries")

	placeholderPattern = regexp.MustCompile(`__\$[0-9a-fA-F]{34}\$__|__[A-Za-z0-9_.:/$]{36}__`)
)

// Library identifies a deployed library by name, source path and address.
type Library struct {
	Name       string
	SourcePath string
	Address    common.Address
}

// Link replaces every placeholder of lib in bytecode with its address.
// Linking a library that bytecode does not reference is a no-op.
func Link(bytecode string, lib Library) string {
	address := strings.ToLower(strings.TrimPrefix(lib.Address.Hex(), "0x"))
	for _, placeholder := range Placeholders(lib) {
		bytecode = strings.ReplaceAll(bytecode, placeholder, address)
	}
	return bytecode
}

// Placeholders returns every placeholder string that may stand for lib.
func Placeholders(lib Library) []string {
	placeholders := []string{truffle(lib.Name)}
	if lib.SourcePath != "" {
		placeholders = append(placeholders, solc(lib.SourcePath+":"+lib.Name))
	}
	return placeholders
}

// Unresolved returns the distinct placeholders still present in bytecode.
func Unresolved(bytecode string) []string {
	matches := placeholderPattern.FindAllString(bytecode, -1)
	seen := make(map[string]struct{}, len(matches))
	unresolved := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		unresolved = append(unresolved, m)
	}
	return unresolved
}

// CheckLinked fails with ErrUnlinkedLibrary if any placeholder remains.
func CheckLinked(bytecode string) error {
	if unresolved := Unresolved(bytecode); len(unresolved) > 0 {
		return fmt.Errorf("%w: %s", ErrUnlinkedLibrary, strings.Join(unresolved, ", "))
	}
	return nil
}

func truffle(name string) string {
	placeholder := "__" + name
	if len(placeholder) > placeholderLength-2 {
		placeholder = placeholder[:placeholderLength-2]
	}
	return placeholder + strings.Repeat("_", placeholderLength-len(placeholder))
}

func solc(fullyQualifiedName string) string {
	hash := crypto.Keccak256Hash([]byte(fullyQualifiedName)).Hex()
	return "__$" + hash[2:36] + "$__"
}
