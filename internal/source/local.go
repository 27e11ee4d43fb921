package source

import (
	"bufio"
	"context"
	"os"
	"strings"
)

// LocalGateway reads the transactions file from the local filesystem.
// Matching is a plain substring test, the same as grep -F.
type LocalGateway struct{}

// FetchMonth implements Gateway.
func (LocalGateway) FetchMonth(ctx context.Context, path, datePattern string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &GatewayError{Month: datePattern, Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", &GatewayError{Month: datePattern, Path: path, Err: err}
			}
		}
		line := scanner.Text()
		if !strings.Contains(line, datePattern) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", &GatewayError{Month: datePattern, Path: path, Err: err}
	}

	return b.String(), nil
}
