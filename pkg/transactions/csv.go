// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transactions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"Resource External ID", "Type", "State", "State Details",
	"Amount", "Fee", "Net Amount", "Total Amount",
	"Reference", "Description", "Email",
	"Gateway Transaction ID", "Captured Date", "Settled Date",
	"Created At",
}

// WriteCSV renders transactions as CSV rows. Monetary values stay in minor
// currency units so rows can be summed without float rounding.
func WriteCSV(w io.Writer, transactions []*Transaction) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return fmt.Errorf("csv header: %v", err)
	}
	for i := range transactions {
		t := transactions[i]
		row := []string{
			t.ResourceExternalID, t.ResourceType, string(t.State), t.StateDetails,
			formatAmount(t.Amount), formatAmount(t.Fee), formatAmount(t.NetAmount), formatAmount(t.TotalAmount),
			stringOrBlank(t.Reference), stringOrBlank(t.Description), stringOrBlank(t.Email),
			stringOrBlank(t.GatewayTransactionID), formatDate(t.CapturedDate), formatDate(t.SettledDate),
			t.CreatedAt.Format(time.RFC3339),
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("csv row %d: %v", i, err)
		}
	}
	out.Flush()
	return out.Error()
}

func formatAmount(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}

func stringOrBlank(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
