package vybiumproofattestor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func testData() []byte {
	data := make([]byte, 400)
	for i := range data {
		data[i] = byte(i * 3)
	}
	return data
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestGenerateAndAttest(t *testing.T) {
	encoded, err := GenerateInput(testData())
	if err != nil {
		t.Fatalf("GenerateInput failed: %v", err)
	}

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.bin")
	outputPath := filepath.Join(dir, "proof.bin")
	if err := os.WriteFile(inputPath, encoded, 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig(inputPath).
		WithOutputPath(outputPath).
		WithMockMode(true).
		WithLogger(quietLogger())

	report, err := Attest(config)
	if err != nil {
		t.Fatalf("Attest failed: %v", err)
	}
	if report.Phase != PhaseCompleted {
		t.Errorf("phase = %s, want %s", report.Phase, PhaseCompleted)
	}
	if report.TotalCycles == 0 {
		t.Error("no cycles reported")
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestAttestRejectsBadConfig(t *testing.T) {
	_, err := Attest(DefaultConfig("").WithLogger(quietLogger()))
	var attestorErr *AttestorError
	if !errors.As(err, &attestorErr) || attestorErr.Code != ErrInvalidConfig {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAttestCorruptInput(t *testing.T) {
	encoded, err := GenerateInput(testData())
	if err != nil {
		t.Fatalf("GenerateInput failed: %v", err)
	}
	// Corrupt the tail so the claim no longer matches the proof.
	encoded[len(encoded)-9] ^= 1

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.bin")
	if err := os.WriteFile(inputPath, encoded, 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig(inputPath).
		WithOutputPath(filepath.Join(dir, "proof.bin")).
		WithMockMode(true).
		WithLogger(quietLogger())

	report, err := Attest(config)
	if err == nil {
		t.Fatal("corrupt input attested successfully")
	}
	if report.Phase != PhaseFaulted {
		t.Errorf("phase = %s, want %s", report.Phase, PhaseFaulted)
	}
	var attestorErr *AttestorError
	if !errors.As(err, &attestorErr) || attestorErr.Code != ErrEmulationFault {
		t.Errorf("expected ErrEmulationFault, got %v", err)
	}
}

func TestVerifyInput(t *testing.T) {
	encoded, err := GenerateInput(testData())
	if err != nil {
		t.Fatalf("GenerateInput failed: %v", err)
	}

	if err := VerifyInput(encoded); err != nil {
		t.Errorf("genuine input rejected: %v", err)
	}

	corrupted := append([]byte(nil), encoded...)
	corrupted[len(corrupted)-9] ^= 1
	err = VerifyInput(corrupted)
	var attestorErr *AttestorError
	if !errors.As(err, &attestorErr) || attestorErr.Code != ErrVerification {
		t.Errorf("expected ErrVerification, got %v", err)
	}
}

func TestDecodeInput(t *testing.T) {
	encoded, err := GenerateInput(testData())
	if err != nil {
		t.Fatalf("GenerateInput failed: %v", err)
	}

	input, err := DecodeInput(encoded)
	if err != nil {
		t.Fatalf("DecodeInput failed: %v", err)
	}
	if len(input.Proofs) != 1 {
		t.Errorf("decoded %d proofs, want 1", len(input.Proofs))
	}
	if uint64(len(input.EvaluationPoint)) != input.PackedLogLen {
		t.Errorf("point has %d coordinates, packed log length is %d",
			len(input.EvaluationPoint), input.PackedLogLen)
	}

	_, err = DecodeInput(encoded[:10])
	var attestorErr *AttestorError
	if !errors.As(err, &attestorErr) || attestorErr.Code != ErrFormat {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestGenerateInputEmptyData(t *testing.T) {
	if _, err := GenerateInput(nil); err == nil {
		t.Error("expected error for empty data")
	}
}
