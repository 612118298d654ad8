package feeds

import (
	"encoding/json"
	"strings"

	"github.com/IvanTurko/perpstream-go/mux"
)

const channelUserFills = "userFills"

// UserFillsOf subscribes to the fills of user, an 0x-prefixed address. The
// first batch is a snapshot of recent fills.
//
// Panics:
//   - sub is nil
//   - user is empty
//   - onData is nil
func UserFillsOf(
	sub Subscriber,
	user string,
	onData func(UserFills),
	opts ...Option,
) (*Feed, error) {
	checkUserArgs("UserFillsOf", sub, user, onData == nil)
	return open(sub, channelUserFills, userPayload(user), decodeUserFills(user), onData, opts)
}

// Liquidations subscribes to the fills of user and passes on only those that
// were part of a liquidation. It shares the userFills channel and payload with
// UserFillsOf, so only one of the two can be open per user on a multiplexer;
// the second fails with sdkerr.ErrDuplicateSubscription.
//
// Panics:
//   - sub is nil
//   - user is empty
//   - onData is nil
func Liquidations(
	sub Subscriber,
	user string,
	onData func([]Fill),
	opts ...Option,
) (*Feed, error) {
	checkUserArgs("Liquidations", sub, user, onData == nil)

	fills := decodeUserFills(user)
	decode := func(data json.RawMessage) ([]Fill, bool, error) {
		uf, ok, err := fills(data)
		if err != nil || !ok {
			return nil, false, err
		}
		var out []Fill
		for _, f := range uf.Fills {
			if f.Liquidation != nil {
				out = append(out, f)
			}
		}
		return out, len(out) > 0, nil
	}

	return open(sub, channelUserFills, userPayload(user), decode, onData, opts)
}

func checkUserArgs(op string, sub Subscriber, user string, nilOnData bool) {
	if sub == nil {
		panic(op + ": subscriber is nil")
	}
	if user == "" {
		panic(op + ": invalid user address")
	}
	if nilOnData {
		panic(op + ": onData function is nil")
	}
}

// Addresses are compared case-insensitively; the server echoes them lowercased.
func userPayload(user string) mux.Payload {
	return mux.Payload{"user": strings.ToLower(user)}
}

func decodeUserFills(user string) decodeFunc[UserFills] {
	user = strings.ToLower(user)
	return func(data json.RawMessage) (UserFills, bool, error) {
		uf, err := decodeAs[UserFills](data)
		if err != nil {
			return uf, false, err
		}
		return uf, strings.ToLower(uf.User) == user, nil
	}
}
