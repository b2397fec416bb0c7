package batchfile

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/sending/signing"
)

// File is the on-disk batch spec: an optional batch ID plus the ordered
// instruction sets to submit.
type File struct {
	ID   string `yaml:"id"`
	Sets []Set  `yaml:"sets"`
}

// Set describes one instruction set.
type Set struct {
	Name               string        `yaml:"name"`
	AuthorizerKeyfiles []string      `yaml:"authorizer_keyfiles"`
	Instructions       []Instruction `yaml:"instructions"`
}

// Instruction describes one program invocation.
type Instruction struct {
	ProgramID string    `yaml:"program_id"` // base58
	Accounts  []Account `yaml:"accounts"`
	Data      string    `yaml:"data"` // base64
}

// Account describes one account an instruction touches.
type Account struct {
	PubKey   string `yaml:"pubkey"` // base58
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
}

// Load reads and parses a batch spec file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(data)
}

// Parse parses batch spec bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(f.Sets) == 0 {
		return nil, errors.New("batch file has no instruction sets")
	}
	return &f, nil
}

// InstructionSets converts the file into domain instruction sets, loading
// any set-level authorizer keypairs from disk.
func (f *File) InstructionSets() ([]domain.InstructionSet, error) {
	sets := make([]domain.InstructionSet, 0, len(f.Sets))

	for si, s := range f.Sets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("set-%d", si)
		}

		set := domain.InstructionSet{Name: name}

		for _, path := range s.AuthorizerKeyfiles {
			auth, err := signing.LoadKeypair(path)
			if err != nil {
				return nil, fmt.Errorf("set %q: authorizer keyfile: %w", name, err)
			}
			set.Authorizers = append(set.Authorizers, auth)
		}

		for ii, in := range s.Instructions {
			program, err := domain.ParsePublicKey(in.ProgramID)
			if err != nil {
				return nil, fmt.Errorf("set %q instruction %d: program_id: %w", name, ii, err)
			}

			instruction := domain.Instruction{ProgramID: program}

			for ai, a := range in.Accounts {
				pub, err := domain.ParsePublicKey(a.PubKey)
				if err != nil {
					return nil, fmt.Errorf("set %q instruction %d account %d: %w", name, ii, ai, err)
				}
				instruction.Accounts = append(instruction.Accounts, domain.AccountMeta{
					PubKey:   pub,
					Signer:   a.Signer,
					Writable: a.Writable,
				})
			}

			if in.Data != "" {
				raw, err := base64.StdEncoding.DecodeString(in.Data)
				if err != nil {
					return nil, fmt.Errorf("set %q instruction %d: data: %w", name, ii, err)
				}
				instruction.Data = raw
			}

			set.Instructions = append(set.Instructions, instruction)
		}

		sets = append(sets, set)
	}

	return sets, nil
}
