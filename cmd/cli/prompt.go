package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AlosedAG/market-creation/internal/llm"
)

var errNoAPIKey = errors.New("an API key is required")

// promptAPIKey asks for a credential when none is configured.
func promptAPIKey(in *bufio.Reader, out io.Writer, provider string) (string, error) {
	fmt.Fprintf(out, "\nPaste your %s API key: ", provider)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errNoAPIKey
	}
	return key, nil
}

// chooseModel reads a 1-based selection. Enter picks the first model, which
// is the cheapest tier. Invalid input is asked for again until EOF.
func chooseModel(in *bufio.Reader, out io.Writer, ranked []llm.RankedModel) (llm.RankedModel, error) {
	if len(ranked) == 0 {
		return llm.RankedModel{}, errors.New("no models available")
	}

	fmt.Fprintln(out, subtleStyle.Render("\nTip: if you hit quota limits, try a Flash Lite model."))
	for {
		fmt.Fprintf(out, "Select model (1-%d) or Enter for [1]: ", len(ranked))
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return llm.RankedModel{}, fmt.Errorf("reading selection: %w", err)
		}
		choice := strings.TrimSpace(line)
		if err != nil && choice == "" {
			return llm.RankedModel{}, errors.New("no model selected")
		}

		if choice == "" {
			return ranked[0], nil
		}
		n, convErr := strconv.Atoi(choice)
		if convErr == nil && n >= 1 && n <= len(ranked) {
			return ranked[n-1], nil
		}
		fmt.Fprintf(out, "Please enter a number between 1 and %d\n", len(ranked))
		if err != nil {
			return llm.RankedModel{}, errors.New("no model selected")
		}
	}
}
