package uploader

import "io"

// progressReader gọi onProgress mỗi khi phần trăm đã đọc tăng
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(pct int)
}

func newProgressReader(r io.Reader, total int64, onProgress func(int)) *progressReader {
	return &progressReader{r: r, total: total, last: -1, onProgress: onProgress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if pct := percent(p.read, p.total); pct > p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}
	return n, err
}

func percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(done * 100 / total)
	if pct > 100 {
		return 100
	}
	return pct
}
