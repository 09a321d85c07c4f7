package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"StockDesk/internal/logger"
	"StockDesk/internal/transfer"
)

func runTransfer(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	var (
		debug bool
		lines pairs
		from  = fs.String("from", "", "source warehouse id")
		to    = fs.String("to", "", "destination warehouse id")
		notes = fs.String("notes", "", "free-form note")
	)
	commonFlags(fs, &debug)
	fs.Var(&lines, "line", "product_id=quantity, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger.SetDebug(debug)

	d := transfer.Draft{FromWarehouseID: *from, ToWarehouseID: *to, Notes: *notes}
	for _, kv := range lines {
		qty, err := decimal.NewFromString(kv[1])
		if err != nil {
			return fmt.Errorf("line %s: invalid quantity %q", kv[0], kv[1])
		}
		d.Lines = append(d.Lines, transfer.Line{ProductID: kv[0], Quantity: qty})
	}

	t, err := transfer.Run(ctx, e.client, d)
	if err != nil {
		var derr *transfer.DraftError
		if errors.As(err, &derr) {
			for field, msg := range derr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
			}
		}
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(t)
}
