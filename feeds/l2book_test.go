package feeds

import (
	"testing"

	"github.com/IvanTurko/perpstream-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_L2Book(t *testing.T) {
	t.Run("invalid coin name", func(t *testing.T) {
		defer func() {
			r := recover()
			assert.Contains(t, r, "invalid coin name")
		}()
		m, _ := newOpenMux(t)
		L2Book(m, "", func(L2BookSnapshot) {})
	})
	t.Run("onData is nil", func(t *testing.T) {
		defer func() {
			r := recover()
			assert.Contains(t, r, "onData function is nil")
		}()
		m, _ := newOpenMux(t)
		L2Book(m, "BTC", nil)
	})
}

func TestL2Book_handle(t *testing.T) {
	m, _ := newOpenMux(t)
	var got []L2BookSnapshot
	_, err := L2Book(m, "BTC", func(b L2BookSnapshot) { got = append(got, b) })
	require.NoError(t, err)

	push(m, "l2Book", `{"coin":"ETH","time":1,"levels":[[],[]]}`)
	push(m, "l2Book", `{"coin":"BTC","time":2,"levels":[[{"px":"10","sz":"1","n":1}],[{"px":"11","sz":"2","n":1}]]}`)

	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Time)
	testutil.AssertDecimalEqual(t, "10", got[0].Bids[0].Price)
	testutil.AssertDecimalEqual(t, "2", got[0].Asks[0].Size)
}

func Test_BestBidOffer(t *testing.T) {
	t.Run("normal flow", func(t *testing.T) {
		m, w := newOpenMux(t)
		_, err := BestBidOffer(m, "SOL", func(BBO) {})
		require.NoError(t, err)
		assert.Equal(t, []testutil.Request{
			{Method: "subscribe", Subscription: map[string]any{"type": "bbo", "coin": "SOL"}},
		}, w.Requests(t))
	})
	t.Run("invalid coin name", func(t *testing.T) {
		defer func() {
			r := recover()
			assert.Contains(t, r, "invalid coin name")
		}()
		m, _ := newOpenMux(t)
		BestBidOffer(m, "", func(BBO) {})
	})
}

func TestBestBidOffer_handle(t *testing.T) {
	m, _ := newOpenMux(t)
	var got []BBO
	_, err := BestBidOffer(m, "SOL", func(b BBO) { got = append(got, b) })
	require.NoError(t, err)

	push(m, "bbo", `{"coin":"SOL","time":3,"bbo":[{"px":"150.1","sz":"10","n":2},null]}`)
	push(m, "bbo", `{"coin":"BTC","time":3,"bbo":[null,null]}`)

	require.Len(t, got, 1)
	testutil.AssertDecimalEqual(t, "150.1", got[0].Bid.Price)
	assert.Nil(t, got[0].Ask)
}
