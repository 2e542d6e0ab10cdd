package delivery

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"voicechat/internal/ai"
	"voicechat/internal/audio"
	"voicechat/internal/domain"
	"voicechat/internal/lang"
	"voicechat/internal/ports"
	"voicechat/internal/speech"
)

// uploads are capped well above the 60s truncation point, the normalizer
// trims the excess
const maxUploadBytes = 20 << 20

// user-facing notices, same wording the original UI shows
const (
	noticeNoSpeech  = "Suara tidak jelas / hening."
	noticeSynthFail = "Gagal memutar suara."
)

type turnResponse struct {
	ports.TurnResult
	AudioBase64 string `json:"audio,omitempty"`
	Notice      string `json:"notice,omitempty"`
}

type TurnHandler struct {
	turns ports.TurnService
	log   *logger.ZapLogger
}

func NewTurnHandler(turns ports.TurnService, log *logger.ZapLogger) *TurnHandler {
	return &TurnHandler{
		turns: turns,
		log:   log,
	}
}

// ProcessMicTurn handles one microphone capture. Multipart fields:
// audio (file), session_id, capture_id, lang.
func (h *TurnHandler) ProcessMicTurn(w http.ResponseWriter, r *http.Request) {
	h.processTurn(w, r, audio.SourceMic)
}

// ProcessUploadTurn handles an uploaded clip. Same fields as the mic route
// minus capture_id; the file name drives container detection.
func (h *TurnHandler) ProcessUploadTurn(w http.ResponseWriter, r *http.Request) {
	h.processTurn(w, r, audio.SourceFile)
}

func (h *TurnHandler) processTurn(w http.ResponseWriter, r *http.Request, source audio.SourceKind) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart: "+err.Error(), http.StatusBadRequest)
		return
	}

	language, err := lang.Parse(r.FormValue("lang"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "missing audio: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read audio: "+err.Error(), http.StatusBadRequest)
		return
	}

	in := ports.TurnInput{
		SessionID: r.FormValue("session_id"),
		CaptureID: r.FormValue("capture_id"),
		Source:    source,
		Language:  language,
		Audio:     raw,
		Filename:  header.Filename,
	}

	res, err := h.turns.ProcessTurn(r.Context(), in)

	// an unintelligible clip is not an error for the client: the turn is
	// dropped and the UI shows a notice
	if errors.Is(err, speech.ErrNoSpeech) {
		writeJSON(w, turnResponse{
			TurnResult: ports.TurnResult{SessionID: in.SessionID},
			Notice:     noticeNoSpeech,
		})
		return
	}
	if err != nil {
		h.writeTurnError(w, err)
		return
	}

	resp := turnResponse{TurnResult: *res}
	if res.SynthesisFailed {
		resp.Notice = noticeSynthFail
	}
	if len(res.Audio) > 0 {
		resp.AudioBase64 = base64.StdEncoding.EncodeToString(res.Audio)
	}

	writeJSON(w, resp)
}

func (h *TurnHandler) writeTurnError(w http.ResponseWriter, err error) {
	var genErr *ai.GenerationError

	switch {
	case errors.Is(err, domain.ErrEmptyAudio):
		http.Error(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, audio.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)

	case errors.Is(err, speech.ErrServiceUnavailable):
		http.Error(w, "speech recognition is unavailable, please try again later", http.StatusServiceUnavailable)

	case errors.As(err, &genErr):
		http.Error(w, "assistant is unavailable, please try again later", http.StatusBadGateway)

	default:
		h.log.Log(logger.LogEntry{Level: "error", Message: "turn failed", Error: err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
