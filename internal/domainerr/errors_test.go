package domainerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsMapStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"not found", NotFound(CodeAuctionNotFound, "auction not found"), http.StatusNotFound},
		{"bad request", BadRequest(CodeInsufficientBalance, "insufficient balance"), http.StatusBadRequest},
		{"forbidden", Forbidden(CodeAuctionFinishedForbidden, "finished"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestFromUnwrapsThroughChain(t *testing.T) {
	base := BadRequest(CodeBidBelowStarting, "bid is below the starting bid")
	wrapped := fmt.Errorf("placing bid: %w", base)

	found, ok := From(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeBidBelowStarting, found.Code)

	_, ok = From(errors.New("plain error"))
	assert.False(t, ok)
}

func TestHasCode(t *testing.T) {
	err := BadRequest(CodeAuctionCompleted, "auction is already completed")
	assert.True(t, HasCode(err, CodeAuctionCompleted))
	assert.False(t, HasCode(err, CodeAuctionNotFound))
	assert.False(t, HasCode(nil, CodeAuctionCompleted))
	assert.False(t, HasCode(errors.New("plain"), CodeAuctionCompleted))
}
