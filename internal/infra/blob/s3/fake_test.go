package s3

import (
	"crypto/md5" // #nosec G501 -- S3 ETags are MD5 digests
	"encoding/hex"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeBucket serves the subset of the S3 REST API the store uses.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	puts    int
}

type fakeObject struct {
	body        []byte
	contentType string
	meta        http.Header
	modified    time.Time
}

func (o fakeObject) etag() string {
	sum := md5.Sum(o.body) // #nosec G401
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// handlerTransport serves requests in-process through an http.Handler.
type handlerTransport struct{ h http.Handler }

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.h.ServeHTTP(rec, req)
	return rec.Result(), nil
}

func newFakeStore() (*Store, *fakeBucket) {
	bucket := &fakeBucket{objects: make(map[string]fakeObject)}
	awsCfg := aws.Config{
		Region:      DefaultRegion,
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
	store := newStore(awsCfg, Config{Bucket: "archive", Endpoint: "https://fake.s3.local", PathStyle: true},
		func(o *s3.Options) { o.HTTPClient = &http.Client{Transport: handlerTransport{h: bucket}} })
	return store, bucket
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	key, _ = url.PathUnescape(key)

	switch {
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		b.list(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if decoded, ok := decodeChunked(body); ok {
			body = decoded
		}
		meta := http.Header{}
		for name, values := range r.Header {
			if strings.HasPrefix(strings.ToLower(name), "x-amz-meta-") {
				meta[name] = values
			}
		}
		obj := fakeObject{body: body, contentType: r.Header.Get("Content-Type"), meta: meta, modified: time.Now().UTC().Truncate(time.Second)}
		b.objects[key] = obj
		b.puts++
		w.Header().Set("ETag", obj.etag())
	case r.Method == http.MethodHead || r.Method == http.MethodGet:
		obj, ok := b.objects[key]
		if !ok {
			if r.Method == http.MethodGet {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h := w.Header()
		for name, values := range obj.meta {
			h[name] = values
		}
		if obj.contentType != "" {
			h.Set("Content-Type", obj.contentType)
		}
		h.Set("Content-Length", strconv.Itoa(len(obj.body)))
		h.Set("ETag", obj.etag())
		h.Set("Last-Modified", obj.modified.Format(http.TimeFormat))
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.body)
		}
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

type listResult struct {
	XMLName     xml.Name    `xml:"ListBucketResult"`
	IsTruncated bool        `xml:"IsTruncated"`
	Contents    []listEntry `xml:"Contents"`
}

type listEntry struct {
	Key          string `xml:"Key"`
	Size         int    `xml:"Size"`
	ETag         string `xml:"ETag"`
	LastModified string `xml:"LastModified"`
}

func (b *fakeBucket) list(w http.ResponseWriter, prefix string) {
	var res listResult
	for key, obj := range b.objects {
		if strings.HasPrefix(key, prefix) {
			res.Contents = append(res.Contents, listEntry{Key: key, Size: len(obj.body), ETag: obj.etag(), LastModified: obj.modified.Format(time.RFC3339)})
		}
	}
	sort.Slice(res.Contents, func(i, j int) bool { return res.Contents[i].Key < res.Contents[j].Key })
	w.Header().Set("Content-Type", "application/xml")
	_ = xml.NewEncoder(w).Encode(res)
}

// decodeChunked unwraps a single-chunk aws-chunked body: <hex size>[;ext]\r\n<data>\r\n0\r\n<trailers>.
func decodeChunked(b []byte) ([]byte, bool) {
	header, rest, ok := strings.Cut(string(b), "\r\n")
	if !ok {
		return nil, false
	}
	sizeField, _, _ := strings.Cut(header, ";")
	size, err := strconv.ParseInt(sizeField, 16, 64)
	if err != nil || size < 0 || int64(len(rest)) < size+2 {
		return nil, false
	}
	data, tail := rest[:size], rest[size:]
	if !strings.HasPrefix(tail, "\r\n0") {
		return nil, false
	}
	return []byte(data), true
}
