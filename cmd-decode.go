package main

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/anchorbind/bindings"
	"github.com/rpcpool/anchorbind/dispatch"
)

func newCmd_Decode() *cli.Command {
	var idlPath string
	var categoryName string
	var encoding string
	return &cli.Command{
		Name:        "decode",
		Usage:       "Decode a raw data buffer against an IDL's bindings.",
		Description: "Identify which declared shape the buffer matches and print its decoded value. Distinguishes buffers that match no shape from buffers that match a shape but carry a corrupt payload.",
		ArgsUsage:   "<data>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "idl",
				Usage:       "path to the Anchor IDL file",
				Required:    true,
				Destination: &idlPath,
			},
			&cli.StringFlag{
				Name:        "category",
				Usage:       "which bindings to dispatch over: account or instruction",
				Value:       "account",
				Destination: &categoryName,
			},
			&cli.StringFlag{
				Name:        "encoding",
				Usage:       "input encoding: hex, base64 or auto",
				Value:       "auto",
				Destination: &encoding,
			},
		},
		Action: func(c *cli.Context) error {
			raw := c.Args().First()
			if raw == "" {
				return fmt.Errorf("missing data argument")
			}
			data, err := decodeInput(raw, encoding)
			if err != nil {
				return err
			}

			table, err := bindings.LoadFile(idlPath)
			if err != nil {
				return err
			}

			var registry *dispatch.Registry
			switch strings.ToLower(categoryName) {
			case "account", "accounts":
				registry = dispatch.Accounts(table)
			case "instruction", "instructions":
				registry = dispatch.Instructions(table)
			default:
				return fmt.Errorf("unknown category %q (want account or instruction)", categoryName)
			}

			variant, err := registry.IdentifyAndDecode(data)
			if err != nil {
				var corrupt *dispatch.CorruptPayloadError
				switch {
				case errors.Is(err, dispatch.ErrUnknownVariant):
					return fmt.Errorf("buffer does not match any declared %s shape", registry.Category())
				case errors.As(err, &corrupt):
					return fmt.Errorf("buffer is a %s %q but its payload is damaged: %w", registry.Category(), corrupt.Name, corrupt.Err)
				default:
					return err
				}
			}

			rendered, err := fasterJson.Marshal(variant.Value)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", variant.Name, rendered)
			return nil
		},
	}
}

func decodeInput(raw string, encoding string) ([]byte, error) {
	switch encoding {
	case "hex":
		return hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	case "base64":
		return base64.StdEncoding.DecodeString(raw)
	case "auto":
		if data, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
			return data, nil
		}
		if data, err := base64.StdEncoding.DecodeString(raw); err == nil {
			return data, nil
		}
		return nil, fmt.Errorf("data is neither valid hex nor valid base64")
	default:
		return nil, fmt.Errorf("unknown encoding %q (want hex, base64 or auto)", encoding)
	}
}
