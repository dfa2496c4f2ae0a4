package moderation

import (
	"bufio"
	"os"
	"strings"
)

// LoadWords reads one censored word per line from path, skipping blank
// lines and "#" comments. An empty path disables moderation and returns
// no words.
func LoadWords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	unique := make(map[string]struct{})
	// A scanner handles both \n and \r\n line endings correctly.
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		unique[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return words, nil
}
