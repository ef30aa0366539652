// Package qrcode renders payloads as PNG QR codes embedded in data URLs.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

var ErrEmptyPayload = errors.New("qr payload cannot be empty")

type Options struct {
	Width int
	// Margin only toggles go-qrcode's fixed 4-module quiet zone: 0 removes
	// it, any positive value keeps it at 4 modules.
	Margin          int
	DarkColor       string
	LightColor      string
	ErrorCorrection string
}

// DefaultOptions matches the ticket page layout.
func DefaultOptions() Options {
	return Options{
		Width:           350,
		Margin:          2,
		DarkColor:       "#000000",
		LightColor:      "#FFFFFF",
		ErrorCorrection: "M",
	}
}

type Generator interface {
	DataURL(payload string) (string, error)
}

type generator struct {
	opts  Options
	level goqrcode.RecoveryLevel
	dark  color.Color
	light color.Color
}

func NewGenerator(opts Options) (Generator, error) {
	level, err := parseLevel(opts.ErrorCorrection)
	if err != nil {
		return nil, err
	}
	dark, err := parseHexColor(opts.DarkColor)
	if err != nil {
		return nil, fmt.Errorf("dark color: %w", err)
	}
	light, err := parseHexColor(opts.LightColor)
	if err != nil {
		return nil, fmt.Errorf("light color: %w", err)
	}
	if opts.Width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", opts.Width)
	}
	if opts.Margin < 0 {
		return nil, fmt.Errorf("margin cannot be negative, got %d", opts.Margin)
	}

	return &generator{opts: opts, level: level, dark: dark, light: light}, nil
}

func (g *generator) PNG(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	code, err := goqrcode.New(payload, g.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.ForegroundColor = g.dark
	code.BackgroundColor = g.light
	code.DisableBorder = g.opts.Margin == 0

	png, err := code.PNG(g.opts.Width)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}

func (g *generator) DataURL(payload string) (string, error) {
	png, err := g.PNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func parseLevel(s string) (goqrcode.RecoveryLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return goqrcode.Low, nil
	case "", "M":
		return goqrcode.Medium, nil
	case "Q":
		return goqrcode.High, nil
	case "H":
		return goqrcode.Highest, nil
	default:
		return 0, fmt.Errorf("unknown error correction level %q", s)
	}
}

func parseHexColor(s string) (color.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("expected #RRGGBB, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("expected #RRGGBB, got %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
