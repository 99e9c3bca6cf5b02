package stockledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeTransactions decodes transactions from a stream of JSONL data, one
// transaction per line, empty lines skipped. The result is sorted like the
// ledger, the relative order of simultaneous transactions is preserved.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var tx Transaction
		if err := json.Unmarshal(lineBytes, &tx); err != nil {
			return nil, fmt.Errorf("line %d: could not decode transaction %q: %w", line, string(lineBytes), err)
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return SortTransactions(txs), nil
}

// EncodeTransaction marshals a single transaction to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeTransactions writes txs in ledger order in JSONL format.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	for _, tx := range SortTransactions(txs) {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
