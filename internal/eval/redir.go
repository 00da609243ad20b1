package eval

import (
	"io"
	"os"

	"wpcsh/internal/parse"
)

// applyRedirs opens redirect targets and rebinds the command's streams in
// written order, so a later redirect of the same stream wins. The returned
// files stay open for the lifetime of the command; the caller closes them.
func (st *State) applyRedirs(redirs []parse.Redir, stdin *io.Reader, stdout *io.Writer) ([]io.Closer, error) {
	var files []io.Closer
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, redir := range redirs {
		target, err := st.ExpandWord(redir.Target)
		if err != nil {
			closeAll()
			return nil, err
		}
		switch redir.Kind {
		case parse.RInput:
			f, err := st.Fs.Open(target)
			if err != nil {
				closeAll()
				return nil, errf(ErrInvalidInput, "cannot open %s: %v", target, err)
			}
			files = append(files, f)
			*stdin = f
		case parse.ROutput:
			f, err := st.Fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				closeAll()
				return nil, errf(ErrInvalidInput, "cannot open %s: %v", target, err)
			}
			files = append(files, f)
			*stdout = f
		case parse.RAppend:
			f, err := st.Fs.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				closeAll()
				return nil, errf(ErrInvalidInput, "cannot open %s: %v", target, err)
			}
			files = append(files, f)
			*stdout = f
		case parse.RInputOutput:
			f, err := st.Fs.OpenFile(target, os.O_CREATE|os.O_RDWR, 0o644)
			if err != nil {
				closeAll()
				return nil, errf(ErrInvalidInput, "cannot open %s: %v", target, err)
			}
			files = append(files, f)
			*stdin = f
		default:
			closeAll()
			return nil, errf(ErrUnsupported, "unsupported redirection: %s", redir.Kind)
		}
	}
	return files, nil
}
