package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentRequestCapabilitiesPerStatus(t *testing.T) {
	type caps struct {
		sendInfo bool
		approve  bool
		confirm  bool
		reject   bool
		cancel   bool
	}

	tests := map[string]caps{
		PaymentRequestStatusPending:         {sendInfo: true, cancel: true},
		PaymentRequestStatusPaymentInfoSent: {sendInfo: true, approve: true, confirm: true, reject: true},
		PaymentRequestStatusApproved:        {confirm: true, reject: true},
		PaymentRequestStatusRejected:        {sendInfo: true, cancel: true},
		PaymentRequestStatusPaid:            {},
		PaymentRequestStatusCancelled:       {},
	}

	for status, want := range tests {
		t.Run(status, func(t *testing.T) {
			r := &CommissionPaymentRequest{Status: status}
			assert.Equal(t, want.sendInfo, r.CanSendPaymentInfo(), "CanSendPaymentInfo")
			assert.Equal(t, want.approve, r.CanApprove(), "CanApprove")
			assert.Equal(t, want.confirm, r.CanConfirmPayment(), "CanConfirmPayment")
			assert.Equal(t, want.reject, r.CanReject(), "CanReject")
			assert.Equal(t, want.cancel, r.CanCancel(), "CanCancel")
		})
	}
}
