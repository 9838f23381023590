package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/connorhaskins/sim8086/loader"
)

var _ = Describe("Load", func() {
	It("reads the whole file as a flat image entering at address 0", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "listing.bin")
		Expect(os.WriteFile(path, []byte{0x89, 0xD9}, 0o644)).To(Succeed())

		prog, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint16(0)))
		Expect(prog.Code).To(Equal([]byte{0x89, 0xD9}))
	})

	It("returns an error for a missing file", func() {
		_, err := loader.Load(filepath.Join(GinkgoT().TempDir(), "does-not-exist.bin"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects an image larger than the 1 MiB address space", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "too-big.bin")
		Expect(os.WriteFile(path, make([]byte, loader.MaxImageSize+1), 0o644)).To(Succeed())

		_, err := loader.Load(path)
		Expect(err).To(HaveOccurred())
	})
})
