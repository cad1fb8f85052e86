package stacktrace

import (
	"reflect"
	"runtime/debug"
	"strings"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/quill/internal/blog/usecase.(*Usecase).Create(...)
	/src/quill/internal/blog/usecase/blog_create.go:41 +0x1d
net/http.HandlerFunc.ServeHTTP(...)
	/usr/local/go/src/net/http/server.go:2220 +0x29
github.com/shandysiswandi/quill/internal/pkg/router.middlewareRecoverer.func1()
	/src/quill/internal/pkg/router/middleware_recover.go:12
`)

	got := InternalPaths(stack)
	want := []string{
		"internal/blog/usecase/blog_create.go:41",
		"internal/pkg/router/middleware_recover.go:12",
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("paths = %q, want %q", got, want)
	}
}

func TestInternalPathsLiveStack(t *testing.T) {
	for _, p := range InternalPaths(debug.Stack()) {
		if !strings.HasPrefix(p, "internal/") {
			t.Fatalf("unexpected frame %q", p)
		}
	}
}
