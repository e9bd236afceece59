package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/contracts/election"
	"go.dedis.ch/ballot/contracts/election/types"
	"go.dedis.ch/ballot/core/slot"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/proxy"
	phttp "go.dedis.ch/ballot/proxy/http"
	"golang.org/x/xerrors"
)

const addressVar = "address"

// viewer is the read access to the ledger state used by the handlers.
type viewer interface {
	View(fn func(store.Readable) error) error
}

// getter reads a record at an address.
type getter func(store.Readable, slot.Address) (interface{}, error)

func registerHandlers(srv proxy.Proxy, v viewer) {
	srv.RegisterHandler("/elections/{address}", recordHandler(v,
		func(r store.Readable, addr slot.Address) (interface{}, error) {
			return election.GetElection(r, addr)
		}), http.MethodGet)

	srv.RegisterHandler("/candidates/{address}", recordHandler(v,
		func(r store.Readable, addr slot.Address) (interface{}, error) {
			return election.GetCandidate(r, addr)
		}), http.MethodGet)

	srv.RegisterHandler("/voters/{address}", recordHandler(v,
		func(r store.Readable, addr slot.Address) (interface{}, error) {
			return election.GetVoter(r, addr)
		}), http.MethodGet)
}

// recordHandler returns a handler that writes the JSON document of the record
// at the address of the path.
func recordHandler(v viewer, get getter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := slot.ParseAddress(mux.Vars(r)[addressVar])
		if err != nil {
			http.Error(w, "invalid address: "+err.Error(), http.StatusBadRequest)
			return
		}

		var record interface{}

		err = v.View(func(rd store.Readable) error {
			record, err = get(rd, addr)
			return err
		})
		if xerrors.Is(err, slot.ErrNotFound) || xerrors.Is(err, types.ErrUnexpectedKind) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		if err != nil {
			ballot.Logger.Warn().Err(err).
				Str("requestID", phttp.GetRequestID(r)).
				Msg("failed to read record")

			http.Error(w, "failed to read record", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		err = json.NewEncoder(w).Encode(record)
		if err != nil {
			ballot.Logger.Warn().Err(err).Msg("failed to write record")
		}
	}
}
