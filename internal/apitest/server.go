// Package apitest runs an in-process fake of the mini-app backend for tests.
package apitest

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"jordanella.com/freedogs-go/internal/accounts"
)

const (
	DefaultSalt           = "7be2a16a82054ee58398c5edb7ac4a5a"
	DefaultInvitationCode = "QCGA4QGx"
	maxClicksPerDay       = 10000
)

// Game is the per-user state the fake serves from GetGameInfo
type Game struct {
	CurrentAmount int64
	CoinPoolLeft  int64
	CoinPoolLimit int64
	ClicksToday   int64
	SeqNo         int64
	// SeqNoText overrides the wire value of collectSeqNo when set
	SeqNoText string
}

// Task is one reward task on the fake
type Task struct {
	ID       int64
	Name     string
	Reward   string
	Finished bool
	// FailWith makes finish_task reject this task with the given message
	FailWith string
}

// User is everything the fake knows about one account
type User struct {
	Game  Game
	Tasks []*Task
	// AuthError makes telegram_auth reject this user with the given message
	AuthError string
	// GameInfoError makes GetGameInfo reject this user with the given message
	GameInfoError string
	// TaskListError makes task/lists reject this user with the given message
	TaskListError string
}

// Server is a fake backend bound to an httptest listener
type Server struct {
	*httptest.Server

	Salt           string
	InvitationCode string
	TokenTTL       time.Duration

	mu     sync.Mutex
	users  map[int64]*User
	tokens map[string]int64
	calls  []string
	secret []byte
	serial int
}

// NewServer starts a fake backend; callers must Close it
func NewServer() *Server {
	s := &Server{
		Salt:           DefaultSalt,
		InvitationCode: DefaultInvitationCode,
		TokenTTL:       time.Hour,
		users:          make(map[int64]*User),
		tokens:         make(map[string]int64),
		secret:         []byte("apitest"),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// AddUser registers a user by id and returns it for further setup
func (s *Server) AddUser(id int64, user *User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		user = &User{}
	}
	s.users[id] = user
	return user
}

// User returns a copy of a user's current state
func (s *Server) User(id int64) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	if u == nil {
		return User{}
	}
	copied := *u
	copied.Tasks = make([]*Task, len(u.Tasks))
	for i, t := range u.Tasks {
		tc := *t
		copied.Tasks[i] = &tc
	}
	return copied
}

// Calls returns "METHOD /path" for every request seen, in order
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CountCalls counts requests whose "METHOD /path" equals call
func (s *Server) CountCalls(call string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// IssueToken mints a token for id with the given expiry (zero time for no exp claim)
func (s *Server) IssueToken(id int64, exp time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(id, exp)
}

func (s *Server) issueLocked(id int64, exp time.Time) string {
	s.serial++
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(id, 10),
		"jti": strconv.Itoa(s.serial),
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: failed to sign token: %v", err))
	}
	s.tokens[token] = id
	return token
}

// Checksum is the digest the fake expects for a collection
func Checksum(amount, seqNo int64, salt string) string {
	sum := md5.Sum([]byte(strconv.FormatInt(amount, 10) + strconv.FormatInt(seqNo, 10) + salt))
	return hex.EncodeToString(sum[:])
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)

	r.Route("/miniapps/api", func(r chi.Router) {
		r.Post("/user/telegram_auth", s.handleAuth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/user_game_level/GetGameInfo", s.handleGameInfo)
			r.Post("/user_game/collectCoin", s.handleCollect)
			r.Get("/task/lists", s.handleTaskList)
			r.Post("/task/finish_task", s.handleFinishTask)
		})
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		id, ok := s.tokens[token]
		s.mu.Unlock()

		if !ok {
			writeError(w, 401, "unauthorized")
			return
		}

		// Expired tokens are rejected the way the real backend does
		if exp, err := tokenExpiry(token); err == nil && exp != nil && time.Now().After(*exp) {
			writeError(w, 401, "token expired")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("invitationCode") != s.InvitationCode {
		writeError(w, 1, "invalid invitation code")
		return
	}

	account, err := accounts.ParseInitData(r.URL.Query().Get("initData"))
	if err != nil {
		writeError(w, 1, "invalid init data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.userLocked(account.ID)
	if user.AuthError != "" {
		writeError(w, 1, user.AuthError)
		return
	}

	token := s.issueLocked(account.ID, time.Now().Add(s.TokenTTL))
	writeData(w, map[string]interface{}{"token": token})
}

func (s *Server) handleGameInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.userLocked(userFrom(r.Context()))
	if user.GameInfoError != "" {
		writeError(w, 1, user.GameInfoError)
		return
	}

	g := user.Game
	seq := strconv.FormatInt(g.SeqNo, 10)
	if g.SeqNoText != "" {
		seq = g.SeqNoText
	}

	// Counters are strings on the wire, pool values are numbers
	writeData(w, map[string]interface{}{
		"currentAmount":     strconv.FormatInt(g.CurrentAmount, 10),
		"coinPoolLeft":      g.CoinPoolLeft,
		"coinPoolLimit":     g.CoinPoolLimit,
		"userToDayNowClick": g.ClicksToday,
		"userToDayMaxClick": maxClicksPerDay,
		"collectSeqNo":      seq,
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, 1, "bad form")
		return
	}

	amount, err1 := strconv.ParseInt(r.PostForm.Get("collectAmount"), 10, 64)
	seq, err2 := strconv.ParseInt(r.PostForm.Get("collectSeqNo"), 10, 64)
	hash := r.PostForm.Get("hashCode")
	if err1 != nil || err2 != nil {
		writeError(w, 1, "bad parameters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := &s.userLocked(userFrom(r.Context())).Game

	switch {
	case hash != Checksum(amount, seq, s.Salt):
		writeError(w, 1, "hash code error")
	case seq != g.SeqNo:
		writeError(w, 1, "collect seq no error")
	case amount <= 0 || amount > g.CoinPoolLeft || g.ClicksToday+amount > maxClicksPerDay:
		writeError(w, 1, "collect amount error")
	default:
		g.CurrentAmount += amount
		g.CoinPoolLeft -= amount
		g.ClicksToday += amount
		g.SeqNo++
		writeData(w, map[string]interface{}{"collectAmount": amount})
	}
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.userLocked(userFrom(r.Context()))
	if user.TaskListError != "" {
		writeError(w, 1, user.TaskListError)
		return
	}

	lists := make([]map[string]interface{}, 0, len(user.Tasks))
	for _, t := range user.Tasks {
		finished := 0
		if t.Finished {
			finished = 1
		}
		lists = append(lists, map[string]interface{}{
			"id":          t.ID,
			"name":        t.Name,
			"rewardParty": t.Reward,
			"isFinish":    finished,
		})
	}
	writeData(w, map[string]interface{}{"lists": lists})
}

func (s *Server) handleFinishTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, 1, "bad task id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.userLocked(userFrom(r.Context())).Tasks {
		if t.ID != id {
			continue
		}
		if t.FailWith != "" {
			writeError(w, 1, t.FailWith)
			return
		}
		if t.Finished {
			writeError(w, 1, "task already finished")
			return
		}
		t.Finished = true
		writeData(w, nil)
		return
	}
	writeError(w, 1, "task not found")
}

// userLocked returns the user for id, registering an empty one on first sight
func (s *Server) userLocked(id int64) *User {
	user, ok := s.users[id]
	if !ok {
		user = &User{}
		s.users[id] = user
	}
	return user
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, map[string]interface{}{"code": 0, "msg": "success", "data": data})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, map[string]interface{}{"code": code, "msg": msg})
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// InitData builds a credential line in the shape the mini-app exports
func InitData(id int64, firstName string) string {
	user := fmt.Sprintf(`{"id":%d,"first_name":%q,"language_code":"en"}`, id, firstName)
	return "query_id=AAHdF6IQAAAAAN0XohDhrOrc&user=" + url.QueryEscape(user) +
		"&auth_date=1700000000&hash=c501b71e775f74ce10e377dea85a7ea24ecd640b223ea86dfe453e0eaed2e2b2"
}
