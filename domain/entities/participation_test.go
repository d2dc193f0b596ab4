package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsurancePremium(t *testing.T) {
	tests := []struct {
		name     string
		stake    int64
		expected int64
	}{
		{
			name:     "standard stake",
			stake:    100,
			expected: 10,
		},
		{
			name:     "rounds down",
			stake:    99,
			expected: 9,
		},
		{
			name:     "minimum premium of 1",
			stake:    5,
			expected: 1,
		},
		{
			name:     "tiny stake still costs 1",
			stake:    1,
			expected: 1,
		},
		{
			name:     "large stake",
			stake:    10000,
			expected: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InsurancePremium(tt.stake))
		})
	}
}

func TestBetParticipation_InsuredRefund(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		insured  bool
		expected int64
	}{
		{
			name:     "insured gets half back",
			amount:   200,
			insured:  true,
			expected: 100,
		},
		{
			name:     "uninsured gets nothing",
			amount:   200,
			insured:  false,
			expected: 0,
		},
		{
			name:     "odd amount rounds down",
			amount:   101,
			insured:  true,
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &BetParticipation{Amount: tt.amount, Insured: tt.insured}
			assert.Equal(t, tt.expected, p.InsuredRefund())
		})
	}
}

func TestBetParticipation_CalculatePayout(t *testing.T) {
	tests := []struct {
		name         string
		amount       int64
		winningTotal int64
		losersPot    int64
		expected     int64
	}{
		{
			name:         "sole winner takes whole pot",
			amount:       100,
			winningTotal: 100,
			losersPot:    300,
			expected:     400,
		},
		{
			name:         "proportional share",
			amount:       200,
			winningTotal: 300,
			losersPot:    300,
			expected:     400, // 200 + 200*300/300
		},
		{
			name:         "share rounds down",
			amount:       100,
			winningTotal: 300,
			losersPot:    500,
			expected:     266, // 100 + 100*500/300
		},
		{
			name:         "no losers pot returns stake",
			amount:       150,
			winningTotal: 150,
			losersPot:    0,
			expected:     150,
		},
		{
			name:         "zero winning total guards division",
			amount:       100,
			winningTotal: 0,
			losersPot:    500,
			expected:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &BetParticipation{Amount: tt.amount}
			assert.Equal(t, tt.expected, p.CalculatePayout(tt.winningTotal, tt.losersPot))
		})
	}
}
