package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/tunnelhub/tunnelhub/crypto"
)

// genericDenial is the single message for every verification failure.
// Decryption errors and wrong passwords must be indistinguishable at the
// response level, or the endpoint becomes a padding oracle.
const genericDenial = "Invalid password"

// maxAuthBodySize bounds auth request bodies well below the global limit;
// an encrypted password is under a kilobyte even for 4096-bit keys.
const maxAuthBodySize = 16 << 10

// PublicKey handles GET /api/public-key. It returns the PEM-encoded public
// half clients use to encrypt the password before submission; the endpoint
// is whitelisted from rate limiting.
func (a *API) PublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PublicKeyResponse{
		PublicKey: a.keys.PublicPEM,
		KeySize:   a.keys.BitSize,
	})
}

// Verify handles POST /api/verify: decrypt, constant-time compare, and on
// success issue a session token.
func (a *API) Verify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[VerifyRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}

	password, err := crypto.DecryptBase64(a.keys.Private, req.EncryptedPassword)
	if err != nil {
		// Collapsed into the same denial as a wrong password.
		a.logger.Info("login failed", "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusOK, VerifyResponse{Success: false, Message: genericDenial})
		return
	}

	if !a.secretEqual(password) {
		a.logger.Info("login failed", "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusOK, VerifyResponse{Success: false, Message: genericDenial})
		return
	}

	token, err := a.sessions.Create(true)
	if err != nil {
		writeInternalError(w, a.logger, "failed to create session", err)
		return
	}

	a.logger.Info("login succeeded", "remote_addr", r.RemoteAddr)
	writeJSON(w, http.StatusOK, VerifyResponse{
		Success:      true,
		SessionToken: token,
		Message:      "Login successful",
	})
}

// Logout handles POST /api/logout. It always reports success, whether or
// not the request carried a live token.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := bearerToken(r); ok {
		if _, live := a.sessions.Get(token); live {
			a.sessions.Delete(token)
			a.logger.Info("session revoked", "remote_addr", r.RemoteAddr)
		}
	}
	writeJSON(w, http.StatusOK, LogoutResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// Restart handles POST /api/restart. It is gated by the admin secret
// directly rather than by session state, so a restart can be driven from
// automation that holds the credential.
func (a *API) Restart(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RestartRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if !a.requireAdmin(req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid admin password")
		return
	}

	a.logger.Info("restart requested", "remote_addr", r.RemoteAddr)
	writeJSON(w, http.StatusOK, RestartResponse{
		Success: true,
		Message: "Server restart initiated",
	})
	go a.restartFn()
}

// requireAdmin compares the supplied secret with the configured admin
// credential in constant time.
func (a *API) requireAdmin(supplied string) bool {
	return a.secretEqual([]byte(supplied))
}

// secretEqual opens the sealed admin secret and compares digests of both
// sides. Hashing first makes the comparison time independent of input
// length as well as of the position of the first differing byte.
func (a *API) secretEqual(candidate []byte) bool {
	buf, err := a.adminSecret.Open()
	if err != nil {
		a.logger.Error("failed to open admin secret enclave", "error", err)
		return false
	}
	defer buf.Destroy()

	want := sha256.Sum256(buf.Bytes())
	got := sha256.Sum256(candidate)
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// restartProcess re-executes the server binary with the same arguments and
// environment after a short delay so the HTTP response can flush.
func (a *API) restartProcess() {
	time.Sleep(time.Second)

	exe, err := os.Executable()
	if err != nil {
		a.logger.Error("restart failed: cannot resolve executable", "error", err)
		return
	}
	a.logger.Info("restarting server", "executable", exe, "platform", runtime.GOOS)

	proc, err := os.StartProcess(exe, os.Args, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		a.logger.Error("restart failed", "error", err)
		return
	}
	_ = proc.Release()
	os.Exit(0)
}
