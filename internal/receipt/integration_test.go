package receipt_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-manager/internal/receipt"
	"github.com/zombor/receipt-manager/internal/scanning"
)

const seattleReceipt = "Starbucks Store #123\n123 Main St\nSeattle, WA 98101\n03/15/2024\nTotal: $12.45\n"

var _ = Describe("Integration", func() {
	var (
		tempDir  string
		db       *receipt.BoltDB
		store    *receipt.LocalStorage
		server   *receipt.Server
		ghServer *ghttp.Server
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		var err error
		db, err = receipt.NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = receipt.NewLocalStorage(filepath.Join(tempDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())

		service := receipt.NewService(db, scanning.NewPlainText(), store)
		server = receipt.NewServer(service, receipt.BasicAuth{Username: "alice", Password: "secret"})

		ghServer = ghttp.NewServer()
	})

	AfterEach(func() {
		if ghServer != nil {
			ghServer.Close()
		}
		if db != nil {
			db.Close()
		}
	})

	call := func(method, path string, body io.Reader, contentType string) *http.Response {
		req, err := http.NewRequest(method, ghServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		req.SetBasicAuth("alice", "secret")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	upload := func(filename, text string) *http.Response {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", "text/plain; charset=utf-8")
		part, err := writer.CreatePart(h)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(text))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())
		return call(http.MethodPost, "/api/receipts", body, writer.FormDataContentType())
	}

	It("should upload, extract, group and export a receipt", func() {
		ghServer.AppendHandlers(
			server.ServeHTTP, // settings
			server.ServeHTTP, // upload
			server.ServeHTTP, // create trip
			server.ServeHTTP, // assign
			server.ServeHTTP, // get trip
			server.ServeHTTP, // export
			server.ServeHTTP, // delete
			server.ServeHTTP, // list
		)

		// --- Step 1: home location ---
		resp := call(http.MethodPut, "/api/settings",
			strings.NewReader(`{"defaultLocation": {"city": "Portland", "state": "OR"}}`), "application/json")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		// --- Step 2: upload ---
		resp = upload("coffee.txt", seattleReceipt)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var uploaded receipt.Receipt
		Expect(json.NewDecoder(resp.Body).Decode(&uploaded)).To(Succeed())
		Expect(uploaded.UserID).To(Equal("alice"))
		Expect(uploaded.Status).To(Equal(receipt.StatusProcessed))
		Expect(uploaded.Date).To(HaveValue(Equal("2024-03-15")))
		Expect(uploaded.Total).To(HaveValue(Equal(12.45)))
		Expect(uploaded.Category).To(Equal("Food & Drink"))
		Expect(uploaded.Location.Full).To(Equal("Seattle, WA 98101"))
		Expect(uploaded.ExtractedData.IsPotentialTrip).To(BeTrue())

		stored, err := store.Get(uploaded.Filename)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(stored)).To(Equal(seattleReceipt))

		saved, err := db.GetReceipt(uploaded.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.Merchant).To(HaveValue(Equal("Starbucks Store #123")))

		// --- Step 3: trip ---
		resp = call(http.MethodPost, "/api/trips",
			strings.NewReader(`{"name": "Seattle Conference", "startDate": "2024-03-14", "endDate": "2024-03-17"}`), "application/json")
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var trip receipt.Trip
		Expect(json.NewDecoder(resp.Body).Decode(&trip)).To(Succeed())

		resp = call(http.MethodPost, "/api/receipts/"+uploaded.ID+"/trip",
			strings.NewReader(`{"tripId": "`+trip.ID+`"}`), "application/json")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp = call(http.MethodGet, "/api/trips/"+trip.ID, nil, "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var withReceipts struct {
			Trip     receipt.Trip       `json:"trip"`
			Receipts []*receipt.Receipt `json:"receipts"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&withReceipts)).To(Succeed())
		Expect(withReceipts.Receipts).To(HaveLen(1))
		Expect(withReceipts.Receipts[0].TripName).To(Equal("Seattle Conference"))

		// --- Step 4: export ---
		resp = call(http.MethodGet, "/api/receipts/export.xlsx?from=2024-03-01&to=2024-03-31", nil, "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		workbook, err := excelize.OpenReader(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		defer workbook.Close()
		rows, err := workbook.GetRows("Receipts")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[1][5]).To(Equal("Seattle Conference"))

		// --- Step 5: delete ---
		resp = call(http.MethodDelete, "/api/receipts/"+uploaded.ID, nil, "")
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		_, err = store.Get(uploaded.Filename)
		Expect(err).To(HaveOccurred())
		remaining, err := db.GetTrip(trip.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining.ReceiptIDs).To(BeEmpty())

		resp = call(http.MethodGet, "/api/receipts", nil, "")
		var receipts []*receipt.Receipt
		Expect(json.NewDecoder(resp.Body).Decode(&receipts)).To(Succeed())
		Expect(receipts).To(BeEmpty())
	})

	It("should keep a receipt with no text as an error", func() {
		ghServer.AppendHandlers(server.ServeHTTP, server.ServeHTTP)

		resp := upload("blank.txt", "   \n")
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

		resp = call(http.MethodGet, "/api/receipts", nil, "")
		var receipts []*receipt.Receipt
		Expect(json.NewDecoder(resp.Body).Decode(&receipts)).To(Succeed())
		Expect(receipts).To(HaveLen(1))
		Expect(receipts[0].Status).To(Equal(receipt.StatusError))
		Expect(receipts[0].Error).To(Equal("no text found in image"))
	})
})
