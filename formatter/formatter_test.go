package formatter

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/rlog/sanitizer"
	"github.com/stretchr/testify/assert"
)

func testEntry() *Entry {
	return &Entry{
		Time:        time.Date(2024, 1, 2, 3, 4, 5, 6007008, time.UTC),
		Level:       "WARNING",
		GoroutineID: 42,
		Message:     "disk almost full",
		Name:        "app",
	}
}

func TestFormatterTokens(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"default layout", "[%Y-%m-%d %H:%M:%S.%e] [%l] [%t] %v", "[2024-01-02 03:04:05.006] [WARNING] [42] disk almost full\n"},
		{"message only", "%v", "disk almost full\n"},
		{"sub-second precision", "%e|%f|%F", "006|006007|006007008\n"},
		{"level initial and name", "%L %n", "W app\n"},
		{"zone", "%z", "+00:00\n"},
		{"escaped percent", "100%% %v", "100% disk almost full\n"},
		{"unknown token passes through", "%q %v", "%q disk almost full\n"},
		{"trailing percent", "%v %", "disk almost full %\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.pattern)
			assert.Equal(t, tt.want, string(f.Format(testEntry())))
		})
	}
}

func TestFormatterPID(t *testing.T) {
	f := New("%P")
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(f.Format(testEntry())))
}

func TestFormatterUsesGoroutineID(t *testing.T) {
	assert.True(t, New("[%t] %v").UsesGoroutineID())
	assert.False(t, New("%v").UsesGoroutineID())
	assert.False(t, New("%%t").UsesGoroutineID())
}

func TestFormatterSanitizesMessage(t *testing.T) {
	f := New("%v", sanitizer.New().Policy(sanitizer.PolicyTxt))
	e := testEntry()
	e.Message = "a\nb"

	out := string(f.Format(e))
	assert.Equal(t, "a<0a>b\n", out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestFormatterAppendReusesBuffer(t *testing.T) {
	f := New("%v")
	buf := make([]byte, 0, 128)
	buf = f.AppendFormat(buf, testEntry())
	buf = f.AppendFormat(buf, testEntry())
	assert.Equal(t, "disk almost full\ndisk almost full\n", string(buf))
}

func TestFormatterConcurrentUse(t *testing.T) {
	f := New("[%l] %v", sanitizer.New().Policy(sanitizer.PolicyTxt))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "[WARNING] disk almost full\n", string(f.Format(testEntry())))
			}
		}()
	}
	wg.Wait()
}
