package automatic

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"lukechampine.com/frand"
)

// Seed drives the random opening plies of one self-play game. The same
// seed and settings always replay the same game.
type Seed [32]byte

// String encodes the seed as URL-safe base64 without padding.
func (s Seed) String() string {
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseSeed decodes a seed written by String. Standard base64 is accepted
// too.
func ParseSeed(str string) (Seed, error) {
	var seed Seed
	decoded, err := base64.RawURLEncoding.DecodeString(str)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(str)
		if err != nil {
			return seed, fmt.Errorf("failed to decode seed: %w", err)
		}
	}
	if len(decoded) != len(seed) {
		return seed, fmt.Errorf("invalid seed length: got %d bytes, expected %d", len(decoded), len(seed))
	}
	copy(seed[:], decoded)
	return seed, nil
}

// rng returns the generator a game's random plies are drawn from.
func (s Seed) rng() *frand.RNG {
	return frand.NewCustom(s[:], 1024, 12)
}

// GenerateSeeds creates n random seeds.
func GenerateSeeds(n int) []Seed {
	seeds := make([]Seed, n)
	for i := range seeds {
		frand.Read(seeds[i][:])
	}
	return seeds
}

// SaveSeeds writes seeds to path, one per line.
func SaveSeeds(seeds []Seed, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.WriteString("# self-play seeds, base64 URL-safe, 32 bytes each\n"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, seed := range seeds {
		if _, err := writer.WriteString(seed.String() + "\n"); err != nil {
			return fmt.Errorf("failed to write seed %d: %w", i, err)
		}
	}
	return writer.Flush()
}

// LoadSeeds reads a file written by SaveSeeds. Blank lines and lines
// starting with # are skipped.
func LoadSeeds(path string) ([]Seed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	var seeds []Seed
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seed, err := ParseSeed(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		seeds = append(seeds, seed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return seeds, nil
}
